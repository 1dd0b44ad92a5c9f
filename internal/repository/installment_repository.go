package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/domain"
	"gorm.io/gorm"
)

type InstallmentRepository struct {
	db *gorm.DB
}

func NewInstallmentRepository(db *gorm.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

func (r *InstallmentRepository) Create(ctx context.Context, tx *gorm.DB, inst *domain.Installment) error {
	return conn(r.db, tx).WithContext(ctx).Create(inst).Error
}

func (r *InstallmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Installment, error) {
	var inst domain.Installment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inst).Error
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *InstallmentRepository) Update(ctx context.Context, tx *gorm.DB, inst *domain.Installment) error {
	return conn(r.db, tx).WithContext(ctx).Save(inst).Error
}

// MarkPaid flips an unpaid installment to paid. It reports false when the
// installment was already paid, so concurrent payers credit it only once.
func (r *InstallmentRepository) MarkPaid(ctx context.Context, tx *gorm.DB, id uuid.UUID, paidAt time.Time) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&domain.Installment{}).
		Where("id = ? AND status <> ?", id, domain.InstallmentStatusPaid).
		Updates(map[string]interface{}{
			"status":  domain.InstallmentStatusPaid,
			"paid_at": paidAt,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *InstallmentRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	result := conn(r.db, tx).WithContext(ctx).Delete(&domain.Installment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByProject removes a project's whole installment plan
func (r *InstallmentRepository) DeleteByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	return conn(r.db, tx).WithContext(ctx).Where("project_id = ?", projectID).Delete(&domain.Installment{}).Error
}

// ListByProject returns a project's installments ordered by due date
func (r *InstallmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Installment, error) {
	var installments []domain.Installment
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("due_date ASC").
		Find(&installments).Error
	return installments, err
}

// ListUnpaid returns every installment not yet paid
func (r *InstallmentRepository) ListUnpaid(ctx context.Context) ([]domain.Installment, error) {
	var installments []domain.Installment
	err := r.db.WithContext(ctx).
		Where("status <> ?", domain.InstallmentStatusPaid).
		Order("due_date ASC").
		Find(&installments).Error
	return installments, err
}
