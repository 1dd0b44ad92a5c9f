package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/straye-as/finance-api/internal/cache"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/finance"
	"github.com/straye-as/finance-api/internal/ingest"
	"github.com/straye-as/finance-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImportService upserts legacy backend exports by their legacy reference
type ImportService struct {
	clientRepo      *repository.ClientRepository
	projectRepo     *repository.ProjectRepository
	installmentRepo *repository.InstallmentRepository
	cache           cache.Cache
	db              *gorm.DB
	logger          *zap.Logger
	clock           clock
}

func NewImportService(
	clientRepo *repository.ClientRepository,
	projectRepo *repository.ProjectRepository,
	installmentRepo *repository.InstallmentRepository,
	c cache.Cache,
	db *gorm.DB,
	loc *time.Location,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		clientRepo:      clientRepo,
		projectRepo:     projectRepo,
		installmentRepo: installmentRepo,
		cache:           c,
		db:              db,
		logger:          logger,
		clock:           newClock(loc),
	}
}

// ImportClients normalizes and upserts client records. A bad record is
// reported under its position and does not stop the import.
func (s *ImportService) ImportClients(ctx context.Context, records []map[string]any) (*domain.ImportResultDTO, error) {
	result := &domain.ImportResultDTO{Errors: map[string]string{}}

	for i, raw := range records {
		rec, err := ingest.NormalizeClient(raw, s.clock.loc)
		if err != nil {
			result.Skipped++
			result.Errors[strconv.Itoa(i)] = err.Error()
			continue
		}

		created, err := s.upsertClient(ctx, rec)
		if err != nil {
			result.Skipped++
			result.Errors[rec.LegacyRef] = err.Error()
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("legacy clients imported",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	invalidateDashboard(ctx, s.cache, s.logger)
	return result, nil
}

// ImportProjects normalizes and upserts project records with their
// installment plans. Client references are resolved against previously
// imported clients.
func (s *ImportService) ImportProjects(ctx context.Context, records []map[string]any) (*domain.ImportResultDTO, error) {
	result := &domain.ImportResultDTO{Errors: map[string]string{}}

	for i, raw := range records {
		rec, err := ingest.NormalizeProject(raw, s.clock.loc)
		if err != nil {
			result.Skipped++
			result.Errors[strconv.Itoa(i)] = err.Error()
			continue
		}

		created, err := s.upsertProject(ctx, rec)
		if err != nil {
			result.Skipped++
			result.Errors[rec.LegacyRef] = err.Error()
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("legacy projects imported",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	invalidateDashboard(ctx, s.cache, s.logger)
	return result, nil
}

func (s *ImportService) upsertClient(ctx context.Context, rec ingest.ClientRecord) (bool, error) {
	client, err := s.clientRepo.GetByLegacyRef(ctx, rec.LegacyRef)
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, fmt.Errorf("failed to look up client: %w", err)
	}
	if created {
		ref := rec.LegacyRef
		client = &domain.Client{LegacyRef: &ref}
		if rec.CreatedAt != nil {
			client.CreatedAt = *rec.CreatedAt
		}
	}

	client.Name = rec.Name
	client.CompanyName = rec.CompanyName
	client.Email = rec.Email
	client.Phone = rec.Phone
	client.Address = rec.Address
	client.Tags = rec.Tags
	client.Status = rec.Status

	if created {
		err = s.clientRepo.Create(ctx, client)
	} else {
		err = s.clientRepo.Update(ctx, client)
	}
	if err != nil {
		return false, reject("import client", err)
	}
	return created, nil
}

func (s *ImportService) upsertProject(ctx context.Context, rec ingest.ProjectRecord) (bool, error) {
	project, err := s.projectRepo.GetByLegacyRef(ctx, rec.LegacyRef)
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, fmt.Errorf("failed to look up project: %w", err)
	}
	if created {
		ref := rec.LegacyRef
		project = &domain.Project{LegacyRef: &ref}
		if rec.CreatedAt != nil {
			project.CreatedAt = *rec.CreatedAt
		}
	}

	project.Name = rec.Name
	project.Code = rec.Code
	project.Description = rec.Description
	project.Status = rec.Status
	project.StartDate = rec.StartDate
	project.EndDate = rec.EndDate
	project.Budget = rec.Budget
	project.ClientID = nil
	project.ClientName = rec.ClientName
	if rec.ClientRef != "" {
		if client, err := s.clientRepo.GetByLegacyRef(ctx, rec.ClientRef); err == nil {
			project.ClientID = &client.ID
			project.ClientName = client.Name
		}
	}

	fd := domain.FinancialDetails{
		TotalCost:       rec.TotalCost,
		AdvanceReceived: rec.AdvanceReceived,
		RemainingAmount: rec.RemainingAmount,
		IncludeGST:      rec.IncludeGST,
	}
	if fd.RemainingAmount == nil {
		cost := rec.Budget
		if rec.TotalCost != nil {
			cost = *rec.TotalCost
		}
		remaining := finance.RemainingAfter(cost, rec.AdvanceReceived)
		fd.RemainingAmount = &remaining
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if created {
			project.FinancialDetails = fd
			if err := s.projectRepo.Create(ctx, tx, project); err != nil {
				return err
			}
		} else {
			if err := s.projectRepo.Update(ctx, tx, project); err != nil {
				return err
			}
			if err := s.projectRepo.UpdateFinancialDetails(ctx, tx, project.ID, fd); err != nil {
				return err
			}
			if err := s.installmentRepo.DeleteByProject(ctx, tx, project.ID); err != nil {
				return err
			}
		}

		for _, item := range rec.Installments {
			inst := &domain.Installment{
				ProjectID: project.ID,
				Amount:    item.Amount,
				DueDate:   item.DueDate,
				Status:    item.Status,
				Notes:     item.Notes,
				PaidAt:    item.PaidAt,
			}
			if err := s.installmentRepo.Create(ctx, tx, inst); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, reject("import project", err)
	}
	return created, nil
}
