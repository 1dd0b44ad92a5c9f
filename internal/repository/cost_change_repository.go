package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/domain"
	"gorm.io/gorm"
)

// CostChangeRepository stores the append-only cost audit trail
type CostChangeRepository struct {
	db *gorm.DB
}

func NewCostChangeRepository(db *gorm.DB) *CostChangeRepository {
	return &CostChangeRepository{db: db}
}

func (r *CostChangeRepository) Create(ctx context.Context, tx *gorm.DB, change *domain.CostChange) error {
	return conn(r.db, tx).WithContext(ctx).Create(change).Error
}

// ListByProject returns the history oldest first
func (r *CostChangeRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.CostChange, error) {
	var changes []domain.CostChange
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("changed_at ASC").
		Find(&changes).Error
	return changes, err
}
