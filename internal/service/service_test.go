package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/auth"
	"github.com/straye-as/finance-api/internal/cache"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/repository"
	"github.com/straye-as/finance-api/internal/storage"
	"github.com/straye-as/finance-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fixedNow is a Wednesday
var fixedNow = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db           *gorm.DB
	cache        *cache.MemoryCache
	clients      *ClientService
	projects     *ProjectService
	installments *InstallmentService
	receipts     *ReceiptService
	accounts     *AccountService
	dashboard    *DashboardService
	imports      *ImportService
}

func newTestEnv(t *testing.T) *testEnv {
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

	env := &testEnv{
		db:           db,
		cache:        mem,
		clients:      NewClientService(clientRepo, time.UTC, logger),
		projects:     NewProjectService(projectRepo, clientRepo, costChangeRepo, mem, db, time.UTC, logger),
		installments: NewInstallmentService(installmentRepo, projectRepo, accountRepo, mem, db, time.UTC, logger),
		receipts:     NewReceiptService(receiptRepo, projectRepo, accountRepo, store, mem, db, time.UTC, logger),
		accounts:     NewAccountService(accountRepo, logger),
		dashboard:    NewDashboardService(clientRepo, projectRepo, mem, time.Minute, 7, time.UTC, logger),
		imports:      NewImportService(clientRepo, projectRepo, installmentRepo, mem, db, time.UTC, logger),
	}

	now := func() time.Time { return fixedNow }
	env.clients.clock.now = now
	env.projects.clock.now = now
	env.installments.clock.now = now
	env.receipts.clock.now = now
	env.dashboard.clock.now = now
	env.imports.clock.now = now

	return env
}

func adminContext() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.MustParse("6f1c2b8e-3a43-4a55-9d0e-0c1f3c7a2b10"),
		DisplayName: "Kari Nordmann",
		Roles:       []domain.UserRoleType{domain.RoleAdmin},
	})
}

func loadProject(t *testing.T, db *gorm.DB, id uuid.UUID) *domain.Project {
	t.Helper()
	project, err := repository.NewProjectRepository(db).GetByID(context.Background(), id)
	require.NoError(t, err)
	return project
}

func loadAccount(t *testing.T, db *gorm.DB, id uuid.UUID) *domain.Account {
	t.Helper()
	account, err := repository.NewAccountRepository(db).GetByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

func floatPtr(v float64) *float64 {
	return &v
}
