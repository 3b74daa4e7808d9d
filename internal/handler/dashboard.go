package handler

import (
	"net/http"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboardService.Dashboard(ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, dashboard)
}
