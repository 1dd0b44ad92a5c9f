package service

import (
	"context"
	"testing"
	"time"

	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/filter"
	"github.com/straye-as/finance-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Aggregates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	testutil.CreateTestClient(t, env.db, "Nordic Steel")
	roof := testutil.CreateTestProject(t, env.db, "Roof", 100000, 30000)
	hall := testutil.CreateTestProject(t, env.db, "Hall", 50000, 0)
	require.NoError(t, env.db.Model(hall).Update("status", domain.ProjectStatusPlanning).Error)

	testutil.CreateTestInstallment(t, env.db, roof.ID, 30000, fixedNow.AddDate(0, 0, -30), domain.InstallmentStatusPaid)
	testutil.CreateTestInstallment(t, env.db, roof.ID, 20000, fixedNow.AddDate(0, 0, -2), domain.InstallmentStatusPending)
	testutil.CreateTestInstallment(t, env.db, roof.ID, 15000, fixedNow.AddDate(0, 0, 3), domain.InstallmentStatusPending)
	testutil.CreateTestInstallment(t, env.db, hall.ID, 10000, fixedNow.AddDate(0, 1, 0), domain.InstallmentStatusPending)

	_, err := env.receipts.Create(adminContext(), hall.ID, &domain.CreateReceiptRequest{Amount: "500"}, nil)
	require.NoError(t, err)

	dto, err := env.dashboard.Get(ctx, DateFilter{Type: filter.TypeAll})
	require.NoError(t, err)

	assert.Equal(t, "all", dto.Period)
	assert.Nil(t, dto.From)
	assert.Equal(t, 1, dto.ClientCount)
	assert.Equal(t, 2, dto.ProjectCount)
	assert.Equal(t, 1, dto.ActiveProjects)
	assert.Equal(t, 150000.0, dto.Financials.TotalCost)
	assert.Equal(t, 30000.0, dto.Financials.InstallmentCollected)
	assert.Equal(t, 120000.0, dto.Financials.Outstanding)
	assert.Equal(t, 45000.0, dto.Financials.PendingInstallments)
	assert.Equal(t, 1, dto.OverdueCount)
	assert.Equal(t, 20000.0, dto.OverdueAmount)
	assert.Equal(t, 15000.0, dto.UpcomingDueAmount)
	assert.Equal(t, 1, dto.PendingReceipts)
}

func TestDashboardService_CachesUntilInvalidated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestProject(t, env.db, "Roof", 1000, 0)

	first, err := env.dashboard.Get(ctx, DateFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.ProjectCount)

	// Written behind the service's back, so the cached view is stale
	testutil.CreateTestProject(t, env.db, "Hall", 1000, 0)
	cached, err := env.dashboard.Get(ctx, DateFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, cached.ProjectCount)

	// Mutations through the services drop the cache
	_, err = env.projects.Create(adminContext(), &domain.CreateProjectRequest{Name: "Barn", Budget: 10})
	require.NoError(t, err)

	fresh, err := env.dashboard.Get(ctx, DateFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.ProjectCount)

	env.dashboard.InvalidateCache(ctx)
	var dto domain.DashboardDTO
	found, err := env.cache.Get(ctx, dashboardKey(DateFilter{}, fixedNow), &dto)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDashboardService_PeriodFailsOpen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inWeek := testutil.CreateTestProject(t, env.db, "This week", 1000, 0)
	require.NoError(t, env.db.Model(inWeek).Update("start_date", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)).Error)
	lastMonth := testutil.CreateTestProject(t, env.db, "Last month", 1000, 0)
	require.NoError(t, env.db.Model(lastMonth).Update("start_date", time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)).Error)
	_, err := env.receipts.Create(adminContext(), lastMonth.ID, &domain.CreateReceiptRequest{Amount: "250"}, nil)
	require.NoError(t, err)

	dto, err := env.dashboard.Get(ctx, DateFilter{Type: filter.TypeWeek})
	require.NoError(t, err)

	assert.Equal(t, 1, dto.ProjectCount)
	assert.Equal(t, 1, dto.ActiveProjects, "status counts follow the period")
	assert.Zero(t, dto.PendingReceipts, "the pending receipt belongs to a project outside the week")
	require.NotNil(t, dto.From)
	assert.Equal(t, "2025-06-15T00:00:00Z", *dto.From, "weeks start on Sunday")
	assert.Equal(t, "2025-06-21T23:59:59Z", *dto.To)
}
