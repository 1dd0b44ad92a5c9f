package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/domain"
	"gorm.io/gorm"
)

// ClientFilters narrows client listings. Date-range filtering happens in the
// service because record dates may be unparseable and must fail open.
type ClientFilters struct {
	Search string
	Status *domain.ClientStatus
	Tag    string
}

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) GetByLegacyRef(ctx context.Context, ref string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).Where("legacy_ref = ?", ref).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

// Delete removes the client and detaches its projects
func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Project{}).Where("client_id = ?", id).Update("client_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Client{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns every client matching the filters, newest first
func (r *ClientRepository) List(ctx context.Context, filters ClientFilters) ([]domain.Client, error) {
	var clients []domain.Client
	query := r.db.WithContext(ctx).Model(&domain.Client{})

	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(company_name) LIKE ?", pattern, pattern)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Tag != "" {
		// Tags are stored as a JSON array
		query = query.Where("tags LIKE ?", `%"`+filters.Tag+`"%`)
	}

	err := query.Order("created_at DESC").Find(&clients).Error
	return clients, err
}

func (r *ClientRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Client{}).Count(&count).Error
	return count, err
}
