package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/cnc-license-admin/internal/handler/dto"
	"github.com/makkenzo/cnc-license-admin/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	licenseService *service.LicenseService
	logger         *zap.Logger
}

func NewDashboardHandler(licenseService *service.LicenseService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		licenseService: licenseService,
		logger:         logger.Named("DashboardHandler"),
	}
}

// GetStats godoc
// @Summary      Get dashboard statistics
// @Description  Counts requests by status and licenses by expiry relative to today.
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.StatsEnvelope
// @Failure      503 {object} dto.APIErrorResponse "Store unavailable"
// @Router       /admin/stats [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
	h.logger.Debug("Received request for dashboard stats")

	stats, err := h.licenseService.ComputeStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to compute dashboard stats", zap.Error(err))
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.StatsEnvelope{Success: true, Stats: stats})
}
