package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/database"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an isolated in-memory SQLite database with the schema migrated
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// CreateTestClient creates a client and returns it
func CreateTestClient(t *testing.T, db *gorm.DB, name string) *domain.Client {
	t.Helper()
	client := &domain.Client{
		Name:   name,
		Email:  "client@example.com",
		Status: domain.ClientStatusActive,
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

// CreateTestProject creates a project with the given total cost and amount received
func CreateTestProject(t *testing.T, db *gorm.DB, name string, totalCost, received float64) *domain.Project {
	t.Helper()
	project := &domain.Project{
		Name:   name,
		Code:   "P-" + uuid.NewString()[:8],
		Status: domain.ProjectStatusActive,
		FinancialDetails: domain.FinancialDetails{
			TotalCost:       &totalCost,
			AdvanceReceived: received,
		},
	}
	remaining := totalCost - received
	if remaining < 0 {
		remaining = 0
	}
	project.FinancialDetails.RemainingAmount = &remaining
	require.NoError(t, db.Create(project).Error)
	return project
}

// CreateTestInstallment adds an installment to a project
func CreateTestInstallment(t *testing.T, db *gorm.DB, projectID uuid.UUID, amount float64, due time.Time, status domain.InstallmentStatus) *domain.Installment {
	t.Helper()
	inst := &domain.Installment{
		ProjectID: projectID,
		Amount:    amount,
		DueDate:   due,
		Status:    status,
	}
	require.NoError(t, db.Create(inst).Error)
	return inst
}

// CreateTestAccount creates a bank account
func CreateTestAccount(t *testing.T, db *gorm.DB, name string) *domain.Account {
	t.Helper()
	account := &domain.Account{Name: name, Type: domain.AccountTypeBank}
	require.NoError(t, db.Create(account).Error)
	return account
}
