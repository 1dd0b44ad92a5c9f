package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/straye-as/finance-api/internal/datawarehouse"
	"github.com/straye-as/finance-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePaymentSource struct {
	payments []datawarehouse.Payment
	err      error
	since    time.Time
}

func (f *fakePaymentSource) GetCustomerPayments(ctx context.Context, since time.Time) ([]datawarehouse.Payment, error) {
	f.since = since
	return f.payments, f.err
}

func TestReceiptSyncService_SyncPayments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	project := testutil.CreateTestProject(t, env.db, "Roof", 10000, 0)

	source := &fakePaymentSource{payments: []datawarehouse.Payment{
		{Reference: "NXT-1", ProjectCode: project.Code, Amount: 1000, PaidAt: fixedNow.AddDate(0, 0, -1)},
		{Reference: "NXT-2", ProjectCode: project.Code, Amount: 500, PaidAt: fixedNow},
		{Reference: "NXT-3", ProjectCode: "NOT-OURS", Amount: 700, PaidAt: fixedNow},
		{Reference: "", ProjectCode: project.Code, Amount: 10},
		{Reference: "NXT-4", ProjectCode: "", Amount: 20},
	}}
	syncer := NewReceiptSyncService(source, env.receipts, 14, time.UTC, zap.NewNop())
	syncer.clock.now = func() time.Time { return fixedNow }

	recorded, skipped, failed, err := syncer.SyncPayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, recorded)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 2, failed, "missing reference and missing project code")
	assert.Equal(t, fixedNow.AddDate(0, 0, -14), source.since)

	assert.Equal(t, 1500.0, loadProject(t, env.db, project.ID).FinancialDetails.AdvanceReceived)

	// Running again finds nothing new
	recorded, skipped, _, err = syncer.SyncPayments(ctx)
	require.NoError(t, err)
	assert.Zero(t, recorded)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, 1500.0, loadProject(t, env.db, project.ID).FinancialDetails.AdvanceReceived)
}

func TestReceiptSyncService_SourceError(t *testing.T) {
	env := newTestEnv(t)
	syncer := NewReceiptSyncService(&fakePaymentSource{err: errors.New("timeout")}, env.receipts, 0, time.UTC, zap.NewNop())

	_, _, _, err := syncer.SyncPayments(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 30, syncer.lookbackDays)
}
