// Package datawarehouse provides read-only access to the ERP data warehouse on
// MS SQL Server. It is used to pull customer payments that reference a
// project code so they can be recorded as receipts.
package datawarehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/straye-as/finance-api/internal/config"
	"go.uber.org/zap"
)

const (
	maxConnectAttempts = 3
	initialBackoff     = 1 * time.Second
	maxBackoff         = 10 * time.Second

	healthCheckTimeout = 5 * time.Second
)

// paymentsQuery selects customer payments booked against a project code.
// @p1 is the earliest payment date to include.
const paymentsQuery = `
SELECT PaymentId, ProjectCode, Amount, PaymentDate, Description
FROM dbo.nxt_finance_customerpayment
WHERE PaymentDate >= @p1
  AND ProjectCode IS NOT NULL
  AND ProjectCode <> ''
ORDER BY PaymentDate ASC`

// Payment is a customer payment as booked in the ERP
type Payment struct {
	Reference   string
	ProjectCode string
	Amount      float64
	PaidAt      time.Time
	Description string
}

// Client is a read-only connection pool to the data warehouse
type Client struct {
	db           *sql.DB
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus is the health check result for the warehouse connection
type HealthStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
	Open      int    `json:"open_connections"`
	InUse     int    `json:"in_use"`
	Idle      int    `json:"idle"`
}

// NewClient connects to the warehouse, retrying transient failures with
// exponential backoff. It returns nil without error when the warehouse is
// disabled or its credentials are missing.
func NewClient(cfg *config.DataWarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Data warehouse disabled, ERP receipt sync will not run")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Data warehouse enabled but credentials are missing",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	dsn := buildConnectionString(cfg)

	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		db, err := sql.Open("sqlserver", dsn)
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(cfg.MaxIdleConns)
			db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

			ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
			err = db.PingContext(ctx)
			cancel()
			if err == nil {
				logger.Info("Data warehouse connection established", zap.Int("attempt", attempt))
				return newClient(db, cfg.QueryTimeoutDuration(), logger), nil
			}
			_ = db.Close()
		}

		lastErr = err
		logger.Warn("Data warehouse connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < maxConnectAttempts {
			time.Sleep(backoff)
			backoff = min(backoff*2, maxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to connect to data warehouse after %d attempts: %w", maxConnectAttempts, lastErr)
}

func newClient(db *sql.DB, queryTimeout time.Duration, logger *zap.Logger) *Client {
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &Client{db: db, logger: logger, queryTimeout: queryTimeout}
}

// buildConnectionString turns host:port/database into a sqlserver:// URL
func buildConnectionString(cfg *config.DataWarehouseConfig) string {
	hostPort, database, _ := strings.Cut(cfg.URL, "/")
	host, port, found := strings.Cut(hostPort, ":")
	if !found || port == "" {
		port = "1433"
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	query.Add("ApplicationIntent", "ReadOnly")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host + ":" + port,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// IsEnabled reports whether the client is connected
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// Close releases the connection pool
func (c *Client) Close() error {
	if !c.IsEnabled() {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close data warehouse connection: %w", err)
	}
	c.logger.Info("Data warehouse connection closed")
	return nil
}

// HealthCheck pings the warehouse and reports pool statistics
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if !c.IsEnabled() {
		return &HealthStatus{Status: "disabled"}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	stats := c.db.Stats()

	status := &HealthStatus{
		Status:    "healthy",
		LatencyMs: time.Since(start).Milliseconds(),
		Open:      stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
	}
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

// GetCustomerPayments returns payments booked on or after since, oldest first.
// Rows with a non-positive amount are skipped.
func (c *Client) GetCustomerPayments(ctx context.Context, since time.Time) ([]Payment, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("data warehouse client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, paymentsQuery, since)
	if err != nil {
		return nil, fmt.Errorf("payments query failed: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var (
			p           Payment
			description sql.NullString
		)
		if err := rows.Scan(&p.Reference, &p.ProjectCode, &p.Amount, &p.PaidAt, &description); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if p.Amount <= 0 {
			continue
		}
		p.Reference = strings.TrimSpace(p.Reference)
		p.ProjectCode = strings.TrimSpace(p.ProjectCode)
		p.Description = description.String
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	c.logger.Debug("Fetched ERP payments",
		zap.Int("count", len(payments)),
		zap.Time("since", since),
		zap.Duration("duration", time.Since(start)),
	)
	return payments, nil
}
