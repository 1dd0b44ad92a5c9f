package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/domain"
	"gorm.io/gorm"
)

// ProjectFilters narrows project listings
type ProjectFilters struct {
	Search   string
	Status   *domain.ProjectStatus
	ClientID *uuid.UUID
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// withLedger preloads everything the financial calculator needs
func withLedger(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Installments").
		Preload("CostHistory", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at ASC") }).
		Preload("Receipts", func(db *gorm.DB) *gorm.DB { return db.Order("received_at DESC") })
}

func (r *ProjectRepository) Create(ctx context.Context, tx *gorm.DB, project *domain.Project) error {
	return conn(r.db, tx).WithContext(ctx).Create(project).Error
}

// GetByID loads a project with its installments, cost history and receipts
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := withLedger(r.db.WithContext(ctx)).Where("id = ?", id).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetByCode finds the project an ERP payment reference points to
func (r *ProjectRepository) GetByCode(ctx context.Context, code string) (*domain.Project, error) {
	if code == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var project domain.Project
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) GetByLegacyRef(ctx context.Context, ref string) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).Where("legacy_ref = ?", ref).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Update saves the descriptive fields of a project. Financial details are
// written through UpdateFinancialDetails and AdjustReceived.
func (r *ProjectRepository) Update(ctx context.Context, tx *gorm.DB, project *domain.Project) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(project).
		Select("name", "code", "description", "client_id", "client_name", "status", "start_date", "end_date", "budget", "legacy_ref").
		Updates(project).Error
}

// Delete removes the project together with its installments, cost history and receipts
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&domain.Installment{}, &domain.CostChange{}, &domain.PaymentReceipt{}} {
			if err := tx.Where("project_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&domain.Project{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns every project matching the filters with their ledgers, newest first
func (r *ProjectRepository) List(ctx context.Context, filters ProjectFilters) ([]domain.Project, error) {
	var projects []domain.Project
	query := withLedger(r.db.WithContext(ctx).Model(&domain.Project{}))

	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(client_name) LIKE ?", pattern, pattern, pattern)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ClientID != nil {
		query = query.Where("client_id = ?", *filters.ClientID)
	}

	err := query.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// UpdateFinancialDetails overwrites the stored financial details, including NULLs
func (r *ProjectRepository) UpdateFinancialDetails(ctx context.Context, tx *gorm.DB, id uuid.UUID, fd domain.FinancialDetails) error {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_cost":       fd.TotalCost,
			"advance_received": fd.AdvanceReceived,
			"remaining_amount": fd.RemainingAmount,
			"include_gst":      fd.IncludeGST,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustReceived adds delta to the amount received, never going below zero,
// and recomputes the remaining amount against the current cost.
func (r *ProjectRepository) AdjustReceived(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta float64) error {
	db := conn(r.db, tx).WithContext(ctx)
	result := db.Model(&domain.Project{}).
		Where("id = ?", id).
		Update("advance_received", gorm.Expr(
			"CASE WHEN advance_received + ? < 0 THEN 0 ELSE advance_received + ? END", delta, delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.RecomputeRemaining(ctx, tx, id)
}

// RecomputeRemaining sets remaining_amount to max(0, cost - advance_received)
func (r *ProjectRepository) RecomputeRemaining(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ?", id).
		Update("remaining_amount", gorm.Expr(
			"CASE WHEN "+currentCostExpr+" - advance_received < 0 THEN 0 ELSE "+currentCostExpr+" - advance_received END")).
		Error
}

// SetTotalCost replaces the contracted cost and recomputes the remaining amount
func (r *ProjectRepository) SetTotalCost(ctx context.Context, tx *gorm.DB, id uuid.UUID, cost float64) error {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ?", id).
		Update("total_cost", cost)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.RecomputeRemaining(ctx, tx, id)
}
