package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/domain"
	"gorm.io/gorm"
)

type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) Create(ctx context.Context, tx *gorm.DB, receipt *domain.PaymentReceipt) error {
	return conn(r.db, tx).WithContext(ctx).Create(receipt).Error
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentReceipt, error) {
	var receipt domain.PaymentReceipt
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *ReceiptRepository) GetByERPReference(ctx context.Context, ref string) (*domain.PaymentReceipt, error) {
	var receipt domain.PaymentReceipt
	err := r.db.WithContext(ctx).Where("erp_reference = ?", ref).First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *ReceiptRepository) Update(ctx context.Context, tx *gorm.DB, receipt *domain.PaymentReceipt) error {
	return conn(r.db, tx).WithContext(ctx).Save(receipt).Error
}

// Review moves a pending receipt to status. It reports false when the
// receipt had already been reviewed.
func (r *ReceiptRepository) Review(ctx context.Context, tx *gorm.DB, id uuid.UUID, status domain.ReceiptStatus, reviewerID string, at time.Time) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&domain.PaymentReceipt{}).
		Where("id = ? AND status = ?", id, domain.ReceiptStatusPending).
		Updates(map[string]interface{}{
			"status":         status,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    at,
		})
	return result.RowsAffected > 0, result.Error
}

// ListPending returns receipts awaiting review across all projects, oldest first
func (r *ReceiptRepository) ListPending(ctx context.Context) ([]domain.PaymentReceipt, error) {
	var receipts []domain.PaymentReceipt
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.ReceiptStatusPending).
		Order("received_at ASC").
		Find(&receipts).Error
	return receipts, err
}

// ListByProject returns a project's receipts, most recent first
func (r *ReceiptRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.PaymentReceipt, error) {
	var receipts []domain.PaymentReceipt
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("received_at DESC").
		Find(&receipts).Error
	return receipts, err
}
