package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/auth"
	"github.com/straye-as/finance-api/internal/cache"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/filter"
	"github.com/straye-as/finance-api/internal/finance"
	"github.com/straye-as/finance-api/internal/mapper"
	"github.com/straye-as/finance-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectListParams are the query options of a project listing
type ProjectListParams struct {
	Page     int
	PageSize int
	Search   string
	Status   *domain.ProjectStatus
	ClientID *uuid.UUID
	Period   DateFilter
}

type ProjectService struct {
	projectRepo    *repository.ProjectRepository
	clientRepo     *repository.ClientRepository
	costChangeRepo *repository.CostChangeRepository
	cache          cache.Cache
	db             *gorm.DB
	logger         *zap.Logger
	clock          clock
}

func NewProjectService(
	projectRepo *repository.ProjectRepository,
	clientRepo *repository.ClientRepository,
	costChangeRepo *repository.CostChangeRepository,
	c cache.Cache,
	db *gorm.DB,
	loc *time.Location,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo:    projectRepo,
		clientRepo:     clientRepo,
		costChangeRepo: costChangeRepo,
		cache:          c,
		db:             db,
		logger:         logger,
		clock:          newClock(loc),
	}
}

func (s *ProjectService) Create(ctx context.Context, req *domain.CreateProjectRequest) (*domain.ProjectDetailDTO, error) {
	startDate, err := parseOptionalDate("startDate", req.StartDate, s.clock.loc)
	if err != nil {
		return nil, err
	}
	endDate, err := parseOptionalDate("endDate", req.EndDate, s.clock.loc)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.ProjectStatusPlanning
	}

	project := &domain.Project{
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.TrimSpace(req.Code),
		Description: req.Description,
		Status:      status,
		StartDate:   startDate,
		EndDate:     endDate,
		Budget:      req.Budget,
		FinancialDetails: domain.FinancialDetails{
			TotalCost:       req.TotalCost,
			AdvanceReceived: req.AdvanceReceived,
			IncludeGST:      req.IncludeGST,
		},
	}
	if err := s.assignClient(ctx, project, req.ClientID); err != nil {
		return nil, err
	}
	if err := s.ensureCodeAvailable(ctx, project.Code, uuid.Nil); err != nil {
		return nil, err
	}

	remaining := finance.RemainingAfter(mapper.ToFinancials(project).CurrentCost(), req.AdvanceReceived)
	project.FinancialDetails.RemainingAmount = &remaining

	if err := s.projectRepo.Create(ctx, nil, project); err != nil {
		return nil, reject("create project", err)
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("name", project.Name),
		zap.Float64("remaining_amount", remaining),
	)
	invalidateDashboard(ctx, s.cache, s.logger)

	return s.detail(ctx, project.ID)
}

// GetByID returns the project with its installment plan, cost history,
// receipts and computed summary
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectDetailDTO, error) {
	return s.detail(ctx, id)
}

func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProjectRequest) (*domain.ProjectDetailDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "failed to get project")
	}

	startDate, err := parseOptionalDate("startDate", req.StartDate, s.clock.loc)
	if err != nil {
		return nil, err
	}
	endDate, err := parseOptionalDate("endDate", req.EndDate, s.clock.loc)
	if err != nil {
		return nil, err
	}

	budgetChanged := project.Budget != req.Budget

	project.Name = strings.TrimSpace(req.Name)
	project.Code = strings.TrimSpace(req.Code)
	project.Description = req.Description
	project.Status = req.Status
	project.StartDate = startDate
	project.EndDate = endDate
	project.Budget = req.Budget
	if err := s.assignClient(ctx, project, req.ClientID); err != nil {
		return nil, err
	}
	if err := s.ensureCodeAvailable(ctx, project.Code, id); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.projectRepo.Update(ctx, tx, project); err != nil {
			return err
		}
		// Without a total cost the budget is what the ledger reconciles against
		if budgetChanged && project.FinancialDetails.TotalCost == nil {
			return s.projectRepo.RecomputeRemaining(ctx, tx, id)
		}
		return nil
	})
	if err != nil {
		return nil, reject("update project", err)
	}

	s.logger.Info("project updated", zap.String("project_id", id.String()))
	invalidateDashboard(ctx, s.cache, s.logger)

	return s.detail(ctx, id)
}

// ensureCodeAvailable rejects an ERP code already held by a project other than self
func (s *ProjectService) ensureCodeAvailable(ctx context.Context, code string, self uuid.UUID) error {
	if code == "" {
		return nil
	}
	existing, err := s.projectRepo.GetByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up project code: %w", err)
	}
	if existing.ID != self {
		return fmt.Errorf("%w: %s", ErrDuplicateProjectCode, code)
	}
	return nil
}

// Delete removes the project with its installments, cost history and receipts
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return notFoundOrReject(err, ErrProjectNotFound, "delete project")
	}
	s.logger.Info("project deleted", zap.String("project_id", id.String()))
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// List filters projects in the store, then applies the fail-open period
// filter on startDate, falling back to createdAt
func (s *ProjectService) List(ctx context.Context, params ProjectListParams) (*domain.PaginatedResponse, error) {
	projects, err := s.projectRepo.List(ctx, repository.ProjectFilters{
		Search:   params.Search,
		Status:   params.Status,
		ClientID: params.ClientID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	period := params.Period.rangeAt(s.clock.Now())
	dtos := make([]domain.ProjectDTO, 0, len(projects))
	for i := range projects {
		if filter.IsInRangeOrUnknown(period, projectDate(&projects[i])) {
			dtos = append(dtos, mapper.ToProjectDTO(&projects[i]))
		}
	}

	return paginate(dtos, params.Page, params.PageSize), nil
}

// Summary returns the reconciliation view: base cost, financial summary and installment totals
func (s *ProjectService) Summary(ctx context.Context, id uuid.UUID) (*domain.ProjectSummaryDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "failed to get project")
	}

	dto := mapper.ToProjectSummaryDTO(project)
	return &dto, nil
}

// UpdateFinancials applies a partial update of the financial details. An
// explicit remainingAmount is stored as given; otherwise it is recomputed.
func (s *ProjectService) UpdateFinancials(ctx context.Context, id uuid.UUID, req *domain.UpdateFinancialsRequest) (*domain.ProjectDetailDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "failed to get project")
	}

	fd := project.FinancialDetails
	if req.TotalCost != nil {
		fd.TotalCost = req.TotalCost
	}
	if req.AdvanceReceived != nil {
		fd.AdvanceReceived = *req.AdvanceReceived
	}
	if req.IncludeGST != nil {
		fd.IncludeGST = *req.IncludeGST
	}
	if req.RemainingAmount != nil {
		fd.RemainingAmount = req.RemainingAmount
	} else {
		project.FinancialDetails = fd
		remaining := finance.RemainingAfter(mapper.ToFinancials(project).CurrentCost(), fd.AdvanceReceived)
		fd.RemainingAmount = &remaining
	}

	if err := s.projectRepo.UpdateFinancialDetails(ctx, nil, id, fd); err != nil {
		return nil, notFoundOrReject(err, ErrProjectNotFound, "update financials")
	}

	s.logger.Info("project financials updated",
		zap.String("project_id", id.String()),
		zap.Float64p("total_cost", fd.TotalCost),
		zap.Float64("advance_received", fd.AdvanceReceived),
		zap.Float64p("remaining_amount", fd.RemainingAmount),
	)
	invalidateDashboard(ctx, s.cache, s.logger)

	return s.detail(ctx, id)
}

// UpdateCost changes the contracted cost, appending an entry to the cost
// history attributed to the acting user
func (s *ProjectService) UpdateCost(ctx context.Context, id uuid.UUID, req *domain.UpdateCostRequest) (*domain.ProjectDetailDTO, error) {
	edit, err := finance.ValidateCostEdit(string(req.NewCost), req.Reason)
	if err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "failed to get project")
	}

	user := actor(ctx)
	change := &domain.CostChange{
		ProjectID:     id,
		PreviousCost:  mapper.ToFinancials(project).CurrentCost(),
		NewCost:       edit.NewCost,
		Reason:        edit.Reason,
		ChangedByID:   user.UserID.String(),
		ChangedByName: user.DisplayName,
		ChangedAt:     s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.costChangeRepo.Create(ctx, tx, change); err != nil {
			return err
		}
		return s.projectRepo.SetTotalCost(ctx, tx, id, edit.NewCost)
	})
	if err != nil {
		return nil, notFoundOrReject(err, ErrProjectNotFound, "update cost")
	}

	s.logger.Info("project cost changed",
		zap.String("project_id", id.String()),
		zap.Float64("previous_cost", change.PreviousCost),
		zap.Float64("new_cost", change.NewCost),
		zap.String("changed_by", change.ChangedByID),
	)
	invalidateDashboard(ctx, s.cache, s.logger)

	return s.detail(ctx, id)
}

// CostHistory returns the cost changes of a project, oldest first
func (s *ProjectService) CostHistory(ctx context.Context, id uuid.UUID) ([]domain.CostChangeDTO, error) {
	if _, err := s.projectRepo.GetByID(ctx, id); err != nil {
		return nil, notFound(err, ErrProjectNotFound, "failed to get project")
	}

	changes, err := s.costChangeRepo.ListByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list cost history: %w", err)
	}

	dtos := make([]domain.CostChangeDTO, len(changes))
	for i := range changes {
		dtos[i] = mapper.ToCostChangeDTO(&changes[i])
	}
	return dtos, nil
}

func (s *ProjectService) detail(ctx context.Context, id uuid.UUID) (*domain.ProjectDetailDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "failed to get project")
	}
	dto := mapper.ToProjectDetailDTO(project, s.clock.Now())
	return &dto, nil
}

// assignClient links the project to clientID and copies the client's name
func (s *ProjectService) assignClient(ctx context.Context, project *domain.Project, clientID *uuid.UUID) error {
	if clientID == nil {
		project.ClientID = nil
		project.ClientName = ""
		return nil
	}
	client, err := s.clientRepo.GetByID(ctx, *clientID)
	if err != nil {
		return notFound(err, ErrClientNotFound, "failed to get client")
	}
	project.ClientID = &client.ID
	project.ClientName = client.Name
	return nil
}

// projectDate is the date a project is filtered on: start date, else creation time
func projectDate(p *domain.Project) any {
	if p.StartDate != nil && !p.StartDate.IsZero() {
		return *p.StartDate
	}
	return p.CreatedAt
}

func parseOptionalDate(field, raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, ok := filter.ParseDate(raw, loc)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a valid date", ErrInvalidInput, field)
	}
	return &t, nil
}

// actor is the user a change is attributed to; background work runs as the system user
func actor(ctx context.Context) *auth.UserContext {
	if user, ok := auth.FromContext(ctx); ok && user != nil {
		return user
	}
	return auth.SystemUser()
}
