package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/cache"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/filter"
	"github.com/straye-as/finance-api/internal/finance"
	"github.com/straye-as/finance-api/internal/mapper"
	"github.com/straye-as/finance-api/internal/repository"
	"github.com/straye-as/finance-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Attachment is an uploaded file accompanying a receipt
type Attachment struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// ERPPayment is a customer payment pulled from the ERP
type ERPPayment struct {
	Reference   string
	ProjectCode string
	Amount      float64
	PaidAt      time.Time
	Description string
}

type ReceiptService struct {
	receiptRepo *repository.ReceiptRepository
	projectRepo *repository.ProjectRepository
	accountRepo *repository.AccountRepository
	storage     storage.Storage
	cache       cache.Cache
	db          *gorm.DB
	logger      *zap.Logger
	clock       clock
}

func NewReceiptService(
	receiptRepo *repository.ReceiptRepository,
	projectRepo *repository.ProjectRepository,
	accountRepo *repository.AccountRepository,
	store storage.Storage,
	c cache.Cache,
	db *gorm.DB,
	loc *time.Location,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		receiptRepo: receiptRepo,
		projectRepo: projectRepo,
		accountRepo: accountRepo,
		storage:     store,
		cache:       c,
		db:          db,
		logger:      logger,
		clock:       newClock(loc),
	}
}

// Create records a pending receipt. It does not count towards the amount
// received until approved.
func (s *ReceiptService) Create(ctx context.Context, projectID uuid.UUID, req *domain.CreateReceiptRequest, attachment *Attachment) (*domain.PaymentReceiptDTO, error) {
	amount, err := finance.ValidateReceiptAmount(string(req.Amount))
	if err != nil {
		return nil, err
	}

	receivedAt := s.clock.Now()
	if raw := strings.TrimSpace(req.ReceivedAt); raw != "" {
		t, ok := filter.ParseDate(raw, s.clock.loc)
		if !ok {
			return nil, fmt.Errorf("%w: receivedAt is not a valid date", ErrInvalidInput)
		}
		receivedAt = t
	}

	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, notFound(err, ErrProjectNotFound, "failed to get project")
	}
	if req.AccountID != nil {
		if _, err := s.accountRepo.GetByID(ctx, *req.AccountID); err != nil {
			return nil, notFound(err, ErrAccountNotFound, "failed to get account")
		}
	}

	receipt := &domain.PaymentReceipt{
		ProjectID:    projectID,
		Amount:       amount,
		ReceivedAt:   receivedAt,
		Notes:        strings.TrimSpace(req.Notes),
		Status:       domain.ReceiptStatusPending,
		Source:       domain.ReceiptSourceManual,
		AccountID:    req.AccountID,
		RecordedByID: actor(ctx).UserID.String(),
	}

	if attachment != nil {
		path, size, err := s.storage.Upload(ctx, "receipts/"+projectID.String(), attachment.Filename, attachment.ContentType, attachment.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
		receipt.AttachmentPath = path
		receipt.AttachmentName = attachment.Filename
		receipt.AttachmentType = attachment.ContentType
		s.logger.Debug("receipt attachment stored", zap.String("path", path), zap.Int64("size", size))
	}

	if err := s.receiptRepo.Create(ctx, nil, receipt); err != nil {
		if receipt.AttachmentPath != "" {
			if delErr := s.storage.Delete(ctx, receipt.AttachmentPath); delErr != nil {
				s.logger.Warn("failed to remove orphaned attachment", zap.String("path", receipt.AttachmentPath), zap.Error(delErr))
			}
		}
		return nil, reject("create receipt", err)
	}

	s.logger.Info("receipt recorded",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.Float64("amount", amount),
		zap.Bool("has_attachment", receipt.AttachmentPath != ""),
	)
	invalidateDashboard(ctx, s.cache, s.logger)

	dto := mapper.ToPaymentReceiptDTO(receipt)
	return &dto, nil
}

// Approve accepts a pending receipt, adding it to the project's amount
// received and crediting its account
func (s *ReceiptService) Approve(ctx context.Context, id uuid.UUID) (*domain.PaymentReceiptDTO, error) {
	return s.review(ctx, id, domain.ReceiptStatusApproved)
}

// Reject declines a pending receipt; the ledger is not touched
func (s *ReceiptService) Reject(ctx context.Context, id uuid.UUID) (*domain.PaymentReceiptDTO, error) {
	return s.review(ctx, id, domain.ReceiptStatusRejected)
}

func (s *ReceiptService) review(ctx context.Context, id uuid.UUID, status domain.ReceiptStatus) (*domain.PaymentReceiptDTO, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReceiptNotFound, "failed to get receipt")
	}
	if receipt.Status != domain.ReceiptStatusPending {
		return nil, ErrReceiptAlreadyReviewed
	}

	reviewer := actor(ctx).UserID.String()
	reviewedAt := s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.receiptRepo.Review(ctx, tx, id, status, reviewer, reviewedAt)
		if err != nil {
			return err
		}
		if !changed {
			return ErrReceiptAlreadyReviewed
		}
		if status != domain.ReceiptStatusApproved {
			return nil
		}
		return s.credit(ctx, tx, receipt)
	})
	if errors.Is(err, ErrReceiptAlreadyReviewed) {
		return nil, err
	}
	if err != nil {
		return nil, reject(string(status)+" receipt", err)
	}

	receipt.Status = status
	receipt.ReviewedByID = reviewer
	receipt.ReviewedAt = &reviewedAt

	s.logger.Info("receipt reviewed",
		zap.String("receipt_id", id.String()),
		zap.String("status", string(status)),
		zap.String("reviewed_by", reviewer),
	)
	invalidateDashboard(ctx, s.cache, s.logger)

	dto := mapper.ToPaymentReceiptDTO(receipt)
	return &dto, nil
}

// ListByProject returns a project's receipts, most recent first
func (s *ReceiptService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.PaymentReceiptDTO, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, notFound(err, ErrProjectNotFound, "failed to get project")
	}

	receipts, err := s.receiptRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	dtos := make([]domain.PaymentReceiptDTO, len(receipts))
	for i := range receipts {
		dtos[i] = mapper.ToPaymentReceiptDTO(&receipts[i])
	}
	return dtos, nil
}

// DownloadAttachment opens a receipt's attachment. The caller closes the reader.
func (s *ReceiptService) DownloadAttachment(ctx context.Context, id uuid.UUID) (io.ReadCloser, *domain.PaymentReceipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, ErrReceiptNotFound, "failed to get receipt")
	}
	if receipt.AttachmentPath == "" {
		return nil, nil, ErrAttachmentNotFound
	}

	rc, err := s.storage.Download(ctx, receipt.AttachmentPath)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("failed to download attachment: %w", err)
	}
	return rc, receipt, nil
}

// RecordERPPayment stores an ERP payment as an approved receipt and credits
// the project. It reports false when the payment was already recorded.
func (s *ReceiptService) RecordERPPayment(ctx context.Context, payment ERPPayment) (bool, error) {
	if payment.Reference == "" {
		return false, fmt.Errorf("%w: payment has no reference", ErrInvalidInput)
	}
	if payment.Amount <= 0 {
		return false, fmt.Errorf("%w: payment amount must be greater than 0", ErrInvalidInput)
	}
	payment.ProjectCode = strings.TrimSpace(payment.ProjectCode)
	if payment.ProjectCode == "" {
		return false, fmt.Errorf("%w: payment has no project code", ErrInvalidInput)
	}

	if _, err := s.receiptRepo.GetByERPReference(ctx, payment.Reference); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up ERP reference: %w", err)
	}

	project, err := s.projectRepo.GetByCode(ctx, payment.ProjectCode)
	if err != nil {
		return false, notFound(err, ErrProjectNotFound, "failed to get project")
	}

	now := s.clock.Now()
	ref := payment.Reference
	receipt := &domain.PaymentReceipt{
		ProjectID:    project.ID,
		Amount:       payment.Amount,
		ReceivedAt:   payment.PaidAt,
		Notes:        payment.Description,
		Status:       domain.ReceiptStatusApproved,
		Source:       domain.ReceiptSourceERP,
		ERPReference: &ref,
		RecordedByID: actor(ctx).UserID.String(),
		ReviewedByID: actor(ctx).UserID.String(),
		ReviewedAt:   &now,
	}
	if receipt.ReceivedAt.IsZero() {
		receipt.ReceivedAt = now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.receiptRepo.Create(ctx, tx, receipt); err != nil {
			return err
		}
		return s.credit(ctx, tx, receipt)
	})
	if err != nil {
		return false, reject("record ERP payment", err)
	}

	s.logger.Info("ERP payment recorded",
		zap.String("erp_reference", ref),
		zap.String("project_id", project.ID.String()),
		zap.Float64("amount", payment.Amount),
	)
	return true, nil
}

// InvalidateDashboard drops cached dashboards after a batch of ERP payments
func (s *ReceiptService) InvalidateDashboard(ctx context.Context) {
	invalidateDashboard(ctx, s.cache, s.logger)
}

func (s *ReceiptService) credit(ctx context.Context, tx *gorm.DB, receipt *domain.PaymentReceipt) error {
	if err := s.projectRepo.AdjustReceived(ctx, tx, receipt.ProjectID, receipt.Amount); err != nil {
		return err
	}
	if receipt.AccountID != nil {
		return s.accountRepo.AdjustBalance(ctx, tx, *receipt.AccountID, receipt.Amount)
	}
	return nil
}
