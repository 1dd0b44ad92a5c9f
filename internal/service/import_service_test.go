package service

import (
	"context"
	"testing"

	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportService_ClientsThenProjects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	clients, err := env.imports.ImportClients(ctx, []map[string]any{
		{"_id": "c-1", "name": "Fjord Bygg", "email": "POST@FJORD.NO", "tags": []any{"vip"}},
		{"_id": "c-2", "company": "Vest Tak"},
		{"name": "No id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, clients.Created)
	assert.Equal(t, 1, clients.Skipped)
	assert.Contains(t, clients.Errors, "2")

	projects, err := env.imports.ImportProjects(ctx, []map[string]any{
		{
			"_id":    "p-1",
			"name":   "Harbour warehouse",
			"code":   "HW-01",
			"client": "c-1",
			"status": "active",
			"financialDetails": map[string]any{
				"totalCost":       "120,000",
				"advanceReceived": 20000,
			},
			"installments": []any{
				map[string]any{"amount": 30000, "dueDate": "2025-05-01", "status": "paid", "paidAt": "2025-05-02"},
				map[string]any{"amount": "40000", "dueDate": "2025-08-01", "status": "overdue"},
				map[string]any{"amount": 0, "dueDate": "2025-09-01"},
			},
		},
		{"_id": "p-2", "title": "Loose client", "client": map[string]any{"_id": "c-9", "name": "Unknown AS"}, "budget": 5000},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, projects.Created)
	assert.Empty(t, projects.Errors)

	projectRepo := repository.NewProjectRepository(env.db)
	ref, err := projectRepo.GetByLegacyRef(ctx, "p-1")
	require.NoError(t, err)
	harbour := loadProject(t, env.db, ref.ID)

	require.NotNil(t, harbour.ClientID)
	assert.Equal(t, "Fjord Bygg", harbour.ClientName)
	assert.Equal(t, domain.ProjectStatusActive, harbour.Status)
	require.NotNil(t, harbour.FinancialDetails.TotalCost)
	assert.Equal(t, 120000.0, *harbour.FinancialDetails.TotalCost)
	require.NotNil(t, harbour.FinancialDetails.RemainingAmount)
	assert.Equal(t, 100000.0, *harbour.FinancialDetails.RemainingAmount)
	require.Len(t, harbour.Installments, 2)

	statuses := map[domain.InstallmentStatus]int{}
	for _, inst := range harbour.Installments {
		statuses[inst.Status]++
	}
	assert.Equal(t, map[domain.InstallmentStatus]int{domain.InstallmentStatusPaid: 1, domain.InstallmentStatusPending: 1}, statuses)

	loose, err := projectRepo.GetByLegacyRef(ctx, "p-2")
	require.NoError(t, err)
	assert.Nil(t, loose.ClientID)
	assert.Equal(t, "Unknown AS", loose.ClientName)
	assert.Equal(t, 5000.0, *loose.FinancialDetails.RemainingAmount, "the budget stands in for a missing total cost")
}

func TestImportService_ReimportUpdatesInPlace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	record := map[string]any{
		"_id":          "p-1",
		"name":         "Harbour warehouse",
		"totalCost":    1000,
		"installments": []any{map[string]any{"amount": 100, "dueDate": "2025-07-01"}},
	}
	_, err := env.imports.ImportProjects(ctx, []map[string]any{record})
	require.NoError(t, err)

	record["name"] = "Harbour warehouse II"
	record["remainingAmount"] = 250
	record["installments"] = []any{
		map[string]any{"amount": 100, "dueDate": "2025-07-01"},
		map[string]any{"amount": 200, "dueDate": "2025-08-01"},
	}
	result, err := env.imports.ImportProjects(ctx, []map[string]any{record})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)

	ref, err := repository.NewProjectRepository(env.db).GetByLegacyRef(ctx, "p-1")
	require.NoError(t, err)
	project := loadProject(t, env.db, ref.ID)
	assert.Equal(t, "Harbour warehouse II", project.Name)
	assert.Equal(t, 250.0, *project.FinancialDetails.RemainingAmount)
	assert.Len(t, project.Installments, 2, "the installment plan is replaced, not appended")

	var count int64
	require.NoError(t, env.db.Model(&domain.Project{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
