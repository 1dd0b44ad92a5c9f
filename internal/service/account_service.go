package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/mapper"
	"github.com/straye-as/finance-api/internal/repository"
	"go.uber.org/zap"
)

type AccountService struct {
	accountRepo *repository.AccountRepository
	logger      *zap.Logger
}

func NewAccountService(accountRepo *repository.AccountRepository, logger *zap.Logger) *AccountService {
	return &AccountService{accountRepo: accountRepo, logger: logger}
}

// Create opens an account with a zero balance
func (s *AccountService) Create(ctx context.Context, req *domain.CreateAccountRequest) (*domain.AccountDTO, error) {
	account := &domain.Account{
		Name:   strings.TrimSpace(req.Name),
		Type:   req.Type,
		Number: strings.TrimSpace(req.Number),
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, reject("create account", err)
	}

	s.logger.Info("account created", zap.String("account_id", account.ID.String()), zap.String("name", account.Name))

	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountDTO, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAccountNotFound, "failed to get account")
	}
	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

func (s *AccountService) List(ctx context.Context) ([]domain.AccountDTO, error) {
	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	dtos := make([]domain.AccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = mapper.ToAccountDTO(&accounts[i])
	}
	return dtos, nil
}
