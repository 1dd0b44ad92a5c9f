package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientService_CreateNormalizesTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dto, err := env.clients.Create(ctx, &domain.CreateClientRequest{
		Name: "  Fjord Bygg AS ",
		Tags: []string{"vip", " vip", "", "north"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Fjord Bygg AS", dto.Name)
	assert.Equal(t, domain.ClientStatusActive, dto.Status)
	assert.Equal(t, []string{"vip", "north"}, dto.Tags)

	got, err := env.clients.GetByID(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.Tags, got.Tags)

	_, err = env.clients.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestClientService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dto, err := env.clients.Create(ctx, &domain.CreateClientRequest{Name: "Lead"})
	require.NoError(t, err)

	updated, err := env.clients.Update(ctx, dto.ID, &domain.UpdateClientRequest{Name: "Lead", Status: domain.ClientStatusInactive})
	require.NoError(t, err)
	assert.Equal(t, domain.ClientStatusInactive, updated.Status)

	require.NoError(t, env.clients.Delete(ctx, dto.ID))
	assert.ErrorIs(t, env.clients.Delete(ctx, dto.ID), ErrClientNotFound)
}

func TestClientService_ListPeriodAndPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, c := range []domain.Client{
		{Name: "June A", Status: domain.ClientStatusActive, BaseModel: domain.BaseModel{CreatedAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}},
		{Name: "June B", Status: domain.ClientStatusActive, BaseModel: domain.BaseModel{CreatedAt: time.Date(2025, 6, 17, 9, 0, 0, 0, time.UTC)}},
		{Name: "Older", Status: domain.ClientStatusActive, BaseModel: domain.BaseModel{CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}},
	} {
		c := c
		require.NoError(t, env.db.Create(&c).Error)
	}

	page, err := env.clients.List(ctx, ClientListParams{Period: DateFilter{Type: filter.TypeMonth}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = env.clients.List(ctx, ClientListParams{Period: DateFilter{Type: filter.TypeYear}, PageSize: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data.([]domain.ClientDTO), 1)

	page, err = env.clients.List(ctx, ClientListParams{Period: DateFilter{Type: filter.TypeCustom, StartDate: "2025-06-10"}})
	require.NoError(t, err)
	data := page.Data.([]domain.ClientDTO)
	require.Len(t, data, 1)
	assert.Equal(t, "June B", data[0].Name)
}

func TestAccountService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dto, err := env.accounts.Create(ctx, &domain.CreateAccountRequest{Name: "DNB Operating", Type: domain.AccountTypeBank, Number: "1234.56.78901"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, dto.Balance)

	got, err := env.accounts.GetByID(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "DNB Operating", got.Name)

	list, err := env.accounts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = env.accounts.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
