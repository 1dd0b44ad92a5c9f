package handler

import (
	"context"
	"net/http"

	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/service"
	"go.uber.org/zap"
)

type ImportHandler struct {
	importService *service.ImportService
	logger        *zap.Logger
}

func NewImportHandler(importService *service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		logger:        logger,
	}
}

// ImportClients godoc
// @Summary Import legacy clients
// @Description Upsert an array of legacy client records by their legacy reference
// @Tags Import
// @Accept json
// @Produce json
// @Param request body array true "Legacy client records"
// @Success 200 {object} domain.ImportResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /import/clients [post]
func (h *ImportHandler) ImportClients(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "import clients", h.importService.ImportClients)
}

// ImportProjects godoc
// @Summary Import legacy projects
// @Description Upsert an array of legacy project records. Clients are resolved by their legacy reference, so import them first.
// @Tags Import
// @Accept json
// @Produce json
// @Param request body array true "Legacy project records"
// @Success 200 {object} domain.ImportResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /import/projects [post]
func (h *ImportHandler) ImportProjects(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "import projects", h.importService.ImportProjects)
}

func (h *ImportHandler) run(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	importFn func(context.Context, []map[string]any) (*domain.ImportResultDTO, error),
) {
	var records []map[string]any
	if !decodeJSON(w, r, &records) {
		return
	}
	if len(records) == 0 {
		respondWithError(w, http.StatusBadRequest, "Request body must be a non-empty array of records")
		return
	}

	result, err := importFn(r.Context(), records)
	if err != nil {
		respondServiceError(w, h.logger, err, action)
		return
	}

	h.logger.Info(action+" completed",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	respondJSON(w, http.StatusOK, result)
}
