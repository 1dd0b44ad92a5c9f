package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/finance-api/internal/cache"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/filter"
	"github.com/straye-as/finance-api/internal/finance"
	"github.com/straye-as/finance-api/internal/mapper"
	"github.com/straye-as/finance-api/internal/repository"
	"go.uber.org/zap"
)

const dashboardCachePrefix = "dashboard:"

type DashboardService struct {
	clientRepo  *repository.ClientRepository
	projectRepo *repository.ProjectRepository
	cache       cache.Cache
	ttl         time.Duration
	dueSoonDays int
	logger      *zap.Logger
	clock       clock
}

func NewDashboardService(
	clientRepo *repository.ClientRepository,
	projectRepo *repository.ProjectRepository,
	c cache.Cache,
	ttl time.Duration,
	dueSoonDays int,
	loc *time.Location,
	logger *zap.Logger,
) *DashboardService {
	if c == nil {
		c = cache.Nop{}
	}
	return &DashboardService{
		clientRepo:  clientRepo,
		projectRepo: projectRepo,
		cache:       c,
		ttl:         ttl,
		dueSoonDays: dueSoonDays,
		logger:      logger,
		clock:       newClock(loc),
	}
}

// Get aggregates clients and projects falling in the period. Records whose
// date is unknown are always counted.
func (s *DashboardService) Get(ctx context.Context, period DateFilter) (*domain.DashboardDTO, error) {
	now := s.clock.Now()
	key := dashboardKey(period, now)

	var cached domain.DashboardDTO
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
	} else if found {
		return &cached, nil
	}

	dto, err := s.compute(ctx, period, now)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, dto, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return dto, nil
}

// InvalidateCache drops every cached dashboard
func (s *DashboardService) InvalidateCache(ctx context.Context) {
	invalidateDashboard(ctx, s.cache, s.logger)
}

func (s *DashboardService) compute(ctx context.Context, period DateFilter, now time.Time) (*domain.DashboardDTO, error) {
	r := period.rangeAt(now)

	clients, err := s.clientRepo.List(ctx, repository.ClientFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	projects, err := s.projectRepo.List(ctx, repository.ProjectFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	dto := &domain.DashboardDTO{
		Period: string(period.Type),
		From:   formatBound(r.Start),
		To:     formatBound(r.End),
	}
	if dto.Period == "" {
		dto.Period = string(filter.TypeAll)
	}

	for i := range clients {
		if filter.IsInRangeOrUnknown(r, clients[i].CreatedAt) {
			dto.ClientCount++
		}
	}

	var totals summaryTotals
	dueSoonUntil := filter.EndOfDay(now.AddDate(0, 0, s.dueSoonDays))
	var unpaid []domain.Installment
	upcoming := decimal.Zero

	for i := range projects {
		p := &projects[i]
		if !filter.IsInRangeOrUnknown(r, projectDate(p)) {
			continue
		}
		dto.ProjectCount++
		if p.Status == domain.ProjectStatusActive {
			dto.ActiveProjects++
		}
		totals.add(finance.Summarize(mapper.ToFinancials(p)))

		for _, inst := range p.Installments {
			if inst.Status == domain.InstallmentStatusPaid {
				continue
			}
			unpaid = append(unpaid, inst)
			if !inst.DueDate.Before(now) && !inst.DueDate.After(dueSoonUntil) {
				upcoming = upcoming.Add(decimal.NewFromFloat(inst.Amount))
			}
		}
		for _, receipt := range p.Receipts {
			if receipt.Status == domain.ReceiptStatusPending {
				dto.PendingReceipts++
			}
		}
	}

	overdue := overdueOf(unpaid, now)
	dto.Financials = totals.summary()
	dto.OverdueCount = overdue.Count
	dto.OverdueAmount = overdue.Amount
	dto.UpcomingDueAmount = upcoming.InexactFloat64()

	return dto, nil
}

// summaryTotals sums FinancialSummary values across projects
type summaryTotals struct {
	totalCost, advance, installmentCollected, totalCollected decimal.Decimal
	scheduled, pending, outstanding, receipts, initial       decimal.Decimal
}

func (t *summaryTotals) add(s finance.FinancialSummary) {
	t.totalCost = t.totalCost.Add(decimal.NewFromFloat(s.TotalCost))
	t.advance = t.advance.Add(decimal.NewFromFloat(s.Advance))
	t.installmentCollected = t.installmentCollected.Add(decimal.NewFromFloat(s.InstallmentCollected))
	t.totalCollected = t.totalCollected.Add(decimal.NewFromFloat(s.TotalCollected))
	t.scheduled = t.scheduled.Add(decimal.NewFromFloat(s.Scheduled))
	t.pending = t.pending.Add(decimal.NewFromFloat(s.PendingInstallments))
	t.outstanding = t.outstanding.Add(decimal.NewFromFloat(s.Outstanding))
	if s.ApprovedReceipts != nil {
		t.receipts = t.receipts.Add(decimal.NewFromFloat(*s.ApprovedReceipts))
	}
	if s.InitialAdvance != nil {
		t.initial = t.initial.Add(decimal.NewFromFloat(*s.InitialAdvance))
	}
}

func (t *summaryTotals) summary() finance.FinancialSummary {
	receipts := t.receipts.InexactFloat64()
	initial := t.initial.InexactFloat64()
	return finance.FinancialSummary{
		TotalCost:            t.totalCost.InexactFloat64(),
		Advance:              t.advance.InexactFloat64(),
		InstallmentCollected: t.installmentCollected.InexactFloat64(),
		TotalCollected:       t.totalCollected.InexactFloat64(),
		Scheduled:            t.scheduled.InexactFloat64(),
		PendingInstallments:  t.pending.InexactFloat64(),
		Outstanding:          t.outstanding.InexactFloat64(),
		ApprovedReceipts:     &receipts,
		InitialAdvance:       &initial,
	}
}

// dashboardKey includes today's date because relative periods move with it
func dashboardKey(period DateFilter, now time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", dashboardCachePrefix, period.Type, period.StartDate, period.EndDate, now.Format("2006-01-02"))
}

func formatBound(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func invalidateDashboard(ctx context.Context, c cache.Cache, logger *zap.Logger) {
	if c == nil {
		return
	}
	if err := c.DeletePrefix(ctx, dashboardCachePrefix); err != nil {
		logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
