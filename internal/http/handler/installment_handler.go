package handler

import (
	"net/http"

	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/service"
	"go.uber.org/zap"
)

type InstallmentHandler struct {
	installmentService *service.InstallmentService
	logger             *zap.Logger
}

func NewInstallmentHandler(installmentService *service.InstallmentService, logger *zap.Logger) *InstallmentHandler {
	return &InstallmentHandler{
		installmentService: installmentService,
		logger:             logger,
	}
}

// ListByProject godoc
// @Summary List project installments
// @Description Installment plan ordered by due date with derived display status
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {array} domain.InstallmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/installments [get]
func (h *InstallmentHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseID(w, r, "id", "project")
	if !ok {
		return
	}

	plan, err := h.installmentService.ListByProject(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list installments")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// Add godoc
// @Summary Add installment
// @Description Add an installment to the plan. A paid installment with an accountId is recorded as a settled payment.
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param request body domain.InstallmentRequest true "Installment data"
// @Success 201 {object} domain.InstallmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/installments [post]
func (h *InstallmentHandler) Add(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseID(w, r, "id", "project")
	if !ok {
		return
	}

	var req domain.InstallmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inst, err := h.installmentService.Add(r.Context(), projectID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "add installment")
		return
	}

	respondJSON(w, http.StatusCreated, inst)
}

// Update godoc
// @Summary Update installment
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path string true "Installment ID" format(uuid)
// @Param request body domain.InstallmentRequest true "Installment data"
// @Success 200 {object} domain.InstallmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /installments/{id} [put]
func (h *InstallmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "installment")
	if !ok {
		return
	}

	var req domain.InstallmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inst, err := h.installmentService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update installment")
		return
	}

	respondJSON(w, http.StatusOK, inst)
}

// Pay godoc
// @Summary Mark installment paid
// @Description Mark a pending installment paid and add its amount to advanceReceived
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path string true "Installment ID" format(uuid)
// @Success 200 {object} domain.InstallmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /installments/{id}/pay [post]
func (h *InstallmentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "installment")
	if !ok {
		return
	}

	inst, err := h.installmentService.Pay(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "pay installment")
		return
	}

	respondJSON(w, http.StatusOK, inst)
}

// Delete godoc
// @Summary Delete installment
// @Description Delete a single installment. Deleting a paid installment reverses its contribution.
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path string true "Installment ID" format(uuid)
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /installments/{id} [delete]
func (h *InstallmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "installment")
	if !ok {
		return
	}

	if err := h.installmentService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete installment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Overdue godoc
// @Summary Overdue installments
// @Description Count and amount of unpaid installments past their due date
// @Tags Installments
// @Accept json
// @Produce json
// @Success 200 {object} service.OverdueReport
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /installments/overdue [get]
func (h *InstallmentHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	report, err := h.installmentService.Overdue(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "get overdue installments")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
