package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/auth"
	"github.com/straye-as/finance-api/internal/cache"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/http/handler"
	"github.com/straye-as/finance-api/internal/repository"
	"github.com/straye-as/finance-api/internal/service"
	"github.com/straye-as/finance-api/internal/storage"
	"github.com/straye-as/finance-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	db     *gorm.DB
	router chi.Router
}

// newTestServer mounts every handler on a bare chi router backed by an
// in-memory database. Authentication is replaced by a fixed admin user.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	mem := cache.NewMemoryCache()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	clientRepo := repository.NewClientRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	costChangeRepo := repository.NewCostChangeRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	clients := handler.NewClientHandler(service.NewClientService(clientRepo, time.UTC, logger), logger)
	projects := handler.NewProjectHandler(service.NewProjectService(projectRepo, clientRepo, costChangeRepo, mem, db, time.UTC, logger), logger)
	installments := handler.NewInstallmentHandler(service.NewInstallmentService(installmentRepo, projectRepo, accountRepo, mem, db, time.UTC, logger), logger)
	receipts := handler.NewReceiptHandler(service.NewReceiptService(receiptRepo, projectRepo, accountRepo, store, mem, db, time.UTC, logger), 1, logger)
	accounts := handler.NewAccountHandler(service.NewAccountService(accountRepo, logger), logger)
	dashboard := handler.NewDashboardHandler(service.NewDashboardService(clientRepo, projectRepo, mem, time.Minute, 7, time.UTC, logger), logger)
	imports := handler.NewImportHandler(service.NewImportService(clientRepo, projectRepo, installmentRepo, mem, db, time.UTC, logger), logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(adminContext(req.Context())))
		})
	})

	r.Get("/clients", clients.List)
	r.Post("/clients", clients.Create)
	r.Get("/clients/{id}", clients.GetByID)
	r.Put("/clients/{id}", clients.Update)
	r.Delete("/clients/{id}", clients.Delete)

	r.Get("/projects", projects.List)
	r.Post("/projects", projects.Create)
	r.Get("/projects/{id}", projects.GetByID)
	r.Put("/projects/{id}", projects.Update)
	r.Delete("/projects/{id}", projects.Delete)
	r.Get("/projects/{id}/summary", projects.Summary)
	r.Put("/projects/{id}/financials", projects.UpdateFinancials)
	r.Put("/projects/{id}/cost", projects.UpdateCost)
	r.Get("/projects/{id}/cost-history", projects.CostHistory)
	r.Get("/projects/{id}/installments", installments.ListByProject)
	r.Post("/projects/{id}/installments", installments.Add)
	r.Get("/projects/{id}/receipts", receipts.ListByProject)
	r.Post("/projects/{id}/receipts", receipts.Create)

	r.Get("/installments/overdue", installments.Overdue)
	r.Put("/installments/{id}", installments.Update)
	r.Post("/installments/{id}/pay", installments.Pay)
	r.Delete("/installments/{id}", installments.Delete)

	r.Post("/receipts/{id}/approve", receipts.Approve)
	r.Post("/receipts/{id}/reject", receipts.Reject)
	r.Get("/receipts/{id}/attachment", receipts.DownloadAttachment)

	r.Get("/accounts", accounts.List)
	r.Post("/accounts", accounts.Create)
	r.Get("/accounts/{id}", accounts.GetByID)

	r.Get("/dashboard", dashboard.Get)
	r.Post("/dashboard/refresh", dashboard.InvalidateCache)

	r.Post("/import/clients", imports.ImportClients)
	r.Post("/import/projects", imports.ImportProjects)

	return &testServer{db: db, router: r}
}

func adminContext(ctx context.Context) context.Context {
	return auth.WithUserContext(ctx, &auth.UserContext{
		UserID:      uuid.MustParse("0b7f4c8a-9d3e-4f21-8a6b-5c2d1e0f9a34"),
		DisplayName: "Ola Hansen",
		Email:       "ola.hansen@example.com",
		Roles:       []domain.UserRoleType{domain.RoleAdmin},
	})
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
