package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/filter"
	"github.com/straye-as/finance-api/internal/mapper"
	"github.com/straye-as/finance-api/internal/repository"
	"go.uber.org/zap"
)

// ClientListParams are the query options of a client listing
type ClientListParams struct {
	Page     int
	PageSize int
	Search   string
	Status   *domain.ClientStatus
	Tag      string
	Period   DateFilter
}

type ClientService struct {
	clientRepo *repository.ClientRepository
	logger     *zap.Logger
	clock      clock
}

func NewClientService(clientRepo *repository.ClientRepository, loc *time.Location, logger *zap.Logger) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		logger:     logger,
		clock:      newClock(loc),
	}
}

func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	status := req.Status
	if status == "" {
		status = domain.ClientStatusActive
	}

	client := &domain.Client{
		Name:        strings.TrimSpace(req.Name),
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Tags:        normalizeTags(req.Tags),
		Status:      status,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, reject("create client", err)
	}

	s.logger.Info("client created", zap.String("client_id", client.ID.String()), zap.String("name", client.Name))

	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "failed to get client")
	}

	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateClientRequest) (*domain.ClientDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "failed to get client")
	}

	client.Name = strings.TrimSpace(req.Name)
	client.CompanyName = req.CompanyName
	client.Email = req.Email
	client.Phone = req.Phone
	client.Address = req.Address
	client.Tags = normalizeTags(req.Tags)
	client.Status = req.Status

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, reject("update client", err)
	}

	s.logger.Info("client updated", zap.String("client_id", client.ID.String()))

	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// Delete removes the client; its projects are kept without a client
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return notFoundOrReject(err, ErrClientNotFound, "delete client")
	}
	s.logger.Info("client deleted", zap.String("client_id", id.String()))
	return nil
}

// List filters clients in the store, then applies the fail-open period filter
// on createdAt before paginating
func (s *ClientService) List(ctx context.Context, params ClientListParams) (*domain.PaginatedResponse, error) {
	clients, err := s.clientRepo.List(ctx, repository.ClientFilters{
		Search: params.Search,
		Status: params.Status,
		Tag:    params.Tag,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	period := params.Period.rangeAt(s.clock.Now())
	dtos := make([]domain.ClientDTO, 0, len(clients))
	for i := range clients {
		if filter.IsInRangeOrUnknown(period, clients[i].CreatedAt) {
			dtos = append(dtos, mapper.ToClientDTO(&clients[i]))
		}
	}

	return paginate(dtos, params.Page, params.PageSize), nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
