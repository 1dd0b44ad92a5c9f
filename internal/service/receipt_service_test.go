package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/auth"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/finance"
	"github.com/straye-as/finance-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptService_CreateIsPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()
	project := testutil.CreateTestProject(t, env.db, "Roof", 100000, 0)

	dto, err := env.receipts.Create(ctx, project.ID, &domain.CreateReceiptRequest{
		Amount:     "1500.50",
		ReceivedAt: "2025-06-10",
		Notes:      "bank transfer",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ReceiptStatusPending, dto.Status)
	assert.Equal(t, domain.ReceiptSourceManual, dto.Source)
	assert.Equal(t, 1500.50, dto.Amount)
	assert.False(t, dto.HasAttachment)

	stored := loadProject(t, env.db, project.ID)
	assert.Equal(t, 0.0, stored.FinancialDetails.AdvanceReceived, "pending receipts are not counted")
}

func TestReceiptService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()
	project := testutil.CreateTestProject(t, env.db, "Roof", 100000, 0)

	_, err := env.receipts.Create(ctx, project.ID, &domain.CreateReceiptRequest{Amount: "-5"}, nil)
	assert.True(t, finance.IsKind(err, finance.KindInvalidAmount))

	_, err = env.receipts.Create(ctx, project.ID, &domain.CreateReceiptRequest{Amount: "5", ReceivedAt: "yesterday"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.receipts.Create(ctx, uuid.New(), &domain.CreateReceiptRequest{Amount: "5"}, nil)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	missing := uuid.New()
	_, err = env.receipts.Create(ctx, project.ID, &domain.CreateReceiptRequest{Amount: "5", AccountID: &missing}, nil)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestReceiptService_ApproveCreditsLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()
	project := testutil.CreateTestProject(t, env.db, "Roof", 10000, 1000)
	account := testutil.CreateTestAccount(t, env.db, "Operating")

	created, err := env.receipts.Create(ctx, project.ID, &domain.CreateReceiptRequest{Amount: "2500", AccountID: &account.ID}, nil)
	require.NoError(t, err)

	approved, err := env.receipts.Approve(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceiptStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)

	stored := loadProject(t, env.db, project.ID)
	assert.Equal(t, 3500.0, stored.FinancialDetails.AdvanceReceived)
	assert.Equal(t, 6500.0, *stored.FinancialDetails.RemainingAmount)
	assert.Equal(t, 2500.0, loadAccount(t, env.db, account.ID).Balance)

	_, err = env.receipts.Approve(ctx, created.ID)
	assert.ErrorIs(t, err, ErrReceiptAlreadyReviewed)
	_, err = env.receipts.Reject(ctx, created.ID)
	assert.ErrorIs(t, err, ErrReceiptAlreadyReviewed)

	assert.Equal(t, 3500.0, loadProject(t, env.db, project.ID).FinancialDetails.AdvanceReceived)
}

func TestReceiptService_RejectLeavesLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()
	project := testutil.CreateTestProject(t, env.db, "Roof", 10000, 1000)

	created, err := env.receipts.Create(ctx, project.ID, &domain.CreateReceiptRequest{Amount: "2500"}, nil)
	require.NoError(t, err)

	rejected, err := env.receipts.Reject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceiptStatusRejected, rejected.Status)
	assert.Equal(t, 1000.0, loadProject(t, env.db, project.ID).FinancialDetails.AdvanceReceived)

	_, err = env.receipts.Approve(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrReceiptNotFound)
}

func TestReceiptService_Attachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()
	project := testutil.CreateTestProject(t, env.db, "Roof", 10000, 0)

	created, err := env.receipts.Create(ctx, project.ID, &domain.CreateReceiptRequest{Amount: "100"}, &Attachment{
		Filename:    "receipt.PDF",
		ContentType: "application/pdf",
		Data:        strings.NewReader("%PDF-1.4 test"),
	})
	require.NoError(t, err)
	assert.True(t, created.HasAttachment)
	assert.Equal(t, "receipt.PDF", created.AttachmentName)

	rc, receipt, err := env.receipts.DownloadAttachment(ctx, created.ID)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))
	assert.Equal(t, "application/pdf", receipt.AttachmentType)
	assert.True(t, strings.HasPrefix(receipt.AttachmentPath, "receipts/"+project.ID.String()+"/"))

	plain, err := env.receipts.Create(ctx, project.ID, &domain.CreateReceiptRequest{Amount: "100"}, nil)
	require.NoError(t, err)
	_, _, err = env.receipts.DownloadAttachment(ctx, plain.ID)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestReceiptService_RecordERPPaymentIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := auth.WithUserContext(context.Background(), auth.SystemUser())
	project := testutil.CreateTestProject(t, env.db, "Roof", 10000, 0)

	payment := ERPPayment{
		Reference:   "NXT-1001",
		ProjectCode: project.Code,
		Amount:      4000,
		PaidAt:      time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		Description: "Invoice 88",
	}

	created, err := env.receipts.RecordERPPayment(ctx, payment)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.receipts.RecordERPPayment(ctx, payment)
	require.NoError(t, err)
	assert.False(t, created)

	stored := loadProject(t, env.db, project.ID)
	assert.Equal(t, 4000.0, stored.FinancialDetails.AdvanceReceived)

	receipts, err := env.receipts.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, domain.ReceiptSourceERP, receipts[0].Source)
	assert.Equal(t, domain.ReceiptStatusApproved, receipts[0].Status)
	assert.Equal(t, "NXT-1001", receipts[0].ERPReference)

	_, err = env.receipts.RecordERPPayment(ctx, ERPPayment{Reference: "NXT-2", ProjectCode: "UNKNOWN", Amount: 1})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = env.receipts.RecordERPPayment(ctx, ERPPayment{Reference: "NXT-3", ProjectCode: project.Code})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReceiptService_RecordERPPaymentRequiresProjectCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := auth.WithUserContext(context.Background(), auth.SystemUser())

	uncoded, err := env.projects.Create(adminContext(), &domain.CreateProjectRequest{Name: "No code", Budget: 5000})
	require.NoError(t, err)

	for _, code := range []string{"", "   "} {
		created, err := env.receipts.RecordERPPayment(ctx, ERPPayment{Reference: "NXT-7" + code, ProjectCode: code, Amount: 900})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.False(t, created)
	}

	stored := loadProject(t, env.db, uncoded.ID)
	assert.Zero(t, stored.FinancialDetails.AdvanceReceived)
}
