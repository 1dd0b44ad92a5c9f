package handler

import (
	"net/http"

	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/service"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accountService *service.AccountService
	logger         *zap.Logger
}

func NewAccountHandler(accountService *service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// List godoc
// @Summary List accounts
// @Tags Accounts
// @Accept json
// @Produce json
// @Success 200 {array} domain.AccountDTO
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts [get]
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list accounts")
		return
	}

	respondJSON(w, http.StatusOK, accounts)
}

// GetByID godoc
// @Summary Get account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID" format(uuid)
// @Success 200 {object} domain.AccountDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "account")
	if !ok {
		return
	}

	account, err := h.accountService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get account")
		return
	}

	respondJSON(w, http.StatusOK, account)
}

// Create godoc
// @Summary Create account
// @Description Open an account with a zero balance
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body domain.CreateAccountRequest true "Account data"
// @Success 201 {object} domain.AccountDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /accounts [post]
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accountService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create account")
		return
	}

	respondJSON(w, http.StatusCreated, account)
}
