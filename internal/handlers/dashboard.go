package handlers

import (
	"net/http"

	"github.com/JAFletch-surg/dukes-club/internal/service"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the admin overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Returns per-collection counts and the most recently created events.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=service.DashboardStats}
// @Failure 403 {object} ErrorResponse
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: stats})
}
