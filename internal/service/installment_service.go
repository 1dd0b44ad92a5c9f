package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/finance-api/internal/cache"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/finance"
	"github.com/straye-as/finance-api/internal/mapper"
	"github.com/straye-as/finance-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OverdueReport summarizes unpaid installments past their due date
type OverdueReport struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// settlement is what a paid installment contributes to the ledger
type settlement struct {
	amount    float64
	accountID *uuid.UUID
}

func settlementOf(inst *domain.Installment) settlement {
	if inst.Status != domain.InstallmentStatusPaid {
		return settlement{}
	}
	return settlement{amount: inst.Amount, accountID: inst.AccountID}
}

type InstallmentService struct {
	installmentRepo *repository.InstallmentRepository
	projectRepo     *repository.ProjectRepository
	accountRepo     *repository.AccountRepository
	cache           cache.Cache
	db              *gorm.DB
	logger          *zap.Logger
	clock           clock
}

func NewInstallmentService(
	installmentRepo *repository.InstallmentRepository,
	projectRepo *repository.ProjectRepository,
	accountRepo *repository.AccountRepository,
	c cache.Cache,
	db *gorm.DB,
	loc *time.Location,
	logger *zap.Logger,
) *InstallmentService {
	return &InstallmentService{
		installmentRepo: installmentRepo,
		projectRepo:     projectRepo,
		accountRepo:     accountRepo,
		cache:           c,
		db:              db,
		logger:          logger,
		clock:           newClock(loc),
	}
}

// Add validates and appends an installment to a project's plan. An
// installment created as paid is a settled payment and is credited at once.
func (s *InstallmentService) Add(ctx context.Context, projectID uuid.UUID, req *domain.InstallmentRequest) (*domain.InstallmentDTO, error) {
	payload, err := finance.ValidateInstallment(toInstallmentInput(req), s.clock.loc)
	if err != nil {
		return nil, err
	}

	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, notFound(err, ErrProjectNotFound, "failed to get project")
	}
	accountID, err := s.resolveAccount(ctx, payload.AccountID)
	if err != nil {
		return nil, err
	}

	inst := &domain.Installment{
		ProjectID: projectID,
		Amount:    payload.Amount,
		DueDate:   payload.DueDate,
		Status:    domain.InstallmentStatus(payload.Status),
		Notes:     payload.Notes,
		AccountID: accountID,
	}
	if inst.Status == domain.InstallmentStatusPaid {
		paidAt := s.clock.Now()
		inst.PaidAt = &paidAt
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.installmentRepo.Create(ctx, tx, inst); err != nil {
			return err
		}
		return s.applySettlement(ctx, tx, projectID, settlement{}, settlementOf(inst))
	})
	if err != nil {
		return nil, reject("add installment", err)
	}

	s.logger.Info("installment added",
		zap.String("project_id", projectID.String()),
		zap.String("installment_id", inst.ID.String()),
		zap.Float64("amount", inst.Amount),
		zap.String("status", string(inst.Status)),
	)
	invalidateDashboard(ctx, s.cache, s.logger)

	dto := mapper.ToInstallmentDTO(inst, s.clock.Now())
	return &dto, nil
}

// Update replaces an installment. Moving out of paid, or changing a paid
// amount or account, reverses the old contribution before applying the new one.
func (s *InstallmentService) Update(ctx context.Context, id uuid.UUID, req *domain.InstallmentRequest) (*domain.InstallmentDTO, error) {
	payload, err := finance.ValidateInstallment(toInstallmentInput(req), s.clock.loc)
	if err != nil {
		return nil, err
	}

	inst, err := s.installmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrInstallmentNotFound, "failed to get installment")
	}
	accountID, err := s.resolveAccount(ctx, payload.AccountID)
	if err != nil {
		return nil, err
	}

	before := settlementOf(inst)
	wasPaid := inst.Status == domain.InstallmentStatusPaid

	inst.Amount = payload.Amount
	inst.DueDate = payload.DueDate
	inst.Status = domain.InstallmentStatus(payload.Status)
	inst.Notes = payload.Notes
	inst.AccountID = accountID
	switch {
	case inst.Status != domain.InstallmentStatusPaid:
		inst.PaidAt = nil
	case !wasPaid:
		paidAt := s.clock.Now()
		inst.PaidAt = &paidAt
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.installmentRepo.Update(ctx, tx, inst); err != nil {
			return err
		}
		return s.applySettlement(ctx, tx, inst.ProjectID, before, settlementOf(inst))
	})
	if err != nil {
		return nil, reject("update installment", err)
	}

	s.logger.Info("installment updated",
		zap.String("installment_id", id.String()),
		zap.Float64("amount", inst.Amount),
		zap.String("status", string(inst.Status)),
	)
	invalidateDashboard(ctx, s.cache, s.logger)

	dto := mapper.ToInstallmentDTO(inst, s.clock.Now())
	return &dto, nil
}

// Pay marks a pending installment as paid and adds it to the amount received
func (s *InstallmentService) Pay(ctx context.Context, id uuid.UUID) (*domain.InstallmentDTO, error) {
	inst, err := s.installmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrInstallmentNotFound, "failed to get installment")
	}
	if inst.Status == domain.InstallmentStatusPaid {
		return nil, ErrInstallmentAlreadyPaid
	}

	paidAt := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.installmentRepo.MarkPaid(ctx, tx, id, paidAt)
		if err != nil {
			return err
		}
		if !changed {
			return ErrInstallmentAlreadyPaid
		}
		inst.Status = domain.InstallmentStatusPaid
		inst.PaidAt = &paidAt
		return s.applySettlement(ctx, tx, inst.ProjectID, settlement{}, settlementOf(inst))
	})
	if errors.Is(err, ErrInstallmentAlreadyPaid) {
		return nil, err
	}
	if err != nil {
		return nil, reject("pay installment", err)
	}

	s.logger.Info("installment paid",
		zap.String("installment_id", id.String()),
		zap.String("project_id", inst.ProjectID.String()),
		zap.Float64("amount", inst.Amount),
	)
	invalidateDashboard(ctx, s.cache, s.logger)

	dto := mapper.ToInstallmentDTO(inst, paidAt)
	return &dto, nil
}

// Delete removes an installment, reversing its contribution when it was paid
func (s *InstallmentService) Delete(ctx context.Context, id uuid.UUID) error {
	inst, err := s.installmentRepo.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrInstallmentNotFound, "failed to get installment")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.installmentRepo.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.applySettlement(ctx, tx, inst.ProjectID, settlementOf(inst), settlement{})
	})
	if err != nil {
		return notFoundOrReject(err, ErrInstallmentNotFound, "delete installment")
	}

	s.logger.Info("installment deleted",
		zap.String("installment_id", id.String()),
		zap.String("project_id", inst.ProjectID.String()),
	)
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// ListByProject returns a project's plan ordered by due date with display statuses
func (s *InstallmentService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.InstallmentDTO, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, notFound(err, ErrProjectNotFound, "failed to get project")
	}

	plan, err := s.installmentRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	return mapper.ToInstallmentDTOs(plan, s.clock.Now()), nil
}

// Overdue counts unpaid installments whose derived status is overdue
func (s *InstallmentService) Overdue(ctx context.Context) (OverdueReport, error) {
	unpaid, err := s.installmentRepo.ListUnpaid(ctx)
	if err != nil {
		return OverdueReport{}, fmt.Errorf("failed to list unpaid installments: %w", err)
	}
	return overdueOf(unpaid, s.clock.Now()), nil
}

// SweepOverdue reports overdue installments and drops cached dashboards so
// they pick up the new figures. Stored statuses are left untouched.
func (s *InstallmentService) SweepOverdue(ctx context.Context) (OverdueReport, error) {
	report, err := s.Overdue(ctx)
	if err != nil {
		return OverdueReport{}, err
	}

	s.logger.Info("overdue installment sweep",
		zap.Int("overdue_count", report.Count),
		zap.Float64("overdue_amount", report.Amount),
	)
	invalidateDashboard(ctx, s.cache, s.logger)
	return report, nil
}

// applySettlement moves the ledger from one settlement to another: the
// project's amount received and the credited accounts
func (s *InstallmentService) applySettlement(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, before, after settlement) error {
	delta := decimal.NewFromFloat(after.amount).Sub(decimal.NewFromFloat(before.amount)).InexactFloat64()
	if delta != 0 {
		if err := s.projectRepo.AdjustReceived(ctx, tx, projectID, delta); err != nil {
			return err
		}
	}
	if before.accountID != nil && before.amount != 0 {
		if err := s.accountRepo.AdjustBalance(ctx, tx, *before.accountID, -before.amount); err != nil {
			return err
		}
	}
	if after.accountID != nil && after.amount != 0 {
		if err := s.accountRepo.AdjustBalance(ctx, tx, *after.accountID, after.amount); err != nil {
			return err
		}
	}
	return nil
}

func (s *InstallmentService) resolveAccount(ctx context.Context, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: accountId must be a valid UUID", ErrInvalidInput)
	}
	if _, err := s.accountRepo.GetByID(ctx, id); err != nil {
		return nil, notFound(err, ErrAccountNotFound, "failed to get account")
	}
	return &id, nil
}

func toInstallmentInput(req *domain.InstallmentRequest) finance.InstallmentInput {
	return finance.InstallmentInput{
		Amount:    string(req.Amount),
		DueDate:   req.DueDate,
		Notes:     req.Notes,
		Status:    strings.TrimSpace(req.Status),
		AccountID: req.AccountID,
	}
}

func overdueOf(unpaid []domain.Installment, now time.Time) OverdueReport {
	var report OverdueReport
	amount := decimal.Zero
	for i := range unpaid {
		inst := finance.Installment{Amount: unpaid[i].Amount, DueDate: unpaid[i].DueDate, Status: finance.Status(unpaid[i].Status)}
		if finance.DisplayStatus(inst, now) == finance.StatusOverdue {
			report.Count++
			amount = amount.Add(decimal.NewFromFloat(unpaid[i].Amount))
		}
	}
	report.Amount = amount.InexactFloat64()
	return report
}
