package handler

import (
	"net/http"

	"github.com/straye-as/finance-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Get godoc
// @Summary Get dashboard
// @Description Aggregated figures for the period. Records with unknown dates are always included.
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param period query string false "Date filter" Enums(all, day, week, month, year, custom) default(all)
// @Param startDate query string false "Custom range start (YYYY-MM-DD)"
// @Param endDate query string false "Custom range end (YYYY-MM-DD)"
// @Success 200 {object} domain.DashboardDTO
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboardService.Get(r.Context(), parseDateFilter(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "get dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

// InvalidateCache godoc
// @Summary Refresh dashboard
// @Description Drop cached dashboard figures
// @Tags Dashboard
// @Success 204
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/refresh [post]
func (h *DashboardHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.dashboardService.InvalidateCache(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
