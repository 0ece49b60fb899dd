package handler

import (
	"net/http"

	"dental-referral-tracker/internal/metrics"
	"dental-referral-tracker/internal/usecase"
	"dental-referral-tracker/pkg/response"
)

type DashboardHandler struct {
	dashboardUsecase usecase.DashboardUsecase
}

func NewDashboardHandler(dashboardUsecase usecase.DashboardUsecase) *DashboardHandler {
	return &DashboardHandler{dashboardUsecase: dashboardUsecase}
}

// GetDashboard returns the summary, weekly goal, commission and ranking
// @Summary Dashboard
// @Tags Dashboard
// @Security BearerAuth
// @Produce json
// @Param period query string false "week, month or all"
// @Success 200 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := metrics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		response.ValidationError(w, map[string]string{"period": err.Error()})
		return
	}

	dashboard := h.dashboardUsecase.GetDashboard(r.Context(), period)
	response.SuccessWithMeta(w, http.StatusOK, "Dashboard retrieved successfully", dashboard, listMeta(dashboard.Summary.Total, dashboard.Stale))
}

func (h *DashboardHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	period, err := metrics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		response.ValidationError(w, map[string]string{"period": err.Error()})
		return
	}

	ranking := h.dashboardUsecase.GetRanking(r.Context(), period)
	response.SuccessWithMeta(w, http.StatusOK, "Ranking retrieved successfully", ranking, listMeta(len(ranking.Rows), ranking.Stale))
}
