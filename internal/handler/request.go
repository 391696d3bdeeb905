package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/cnc-license-admin/internal/handler/dto"
	"github.com/makkenzo/cnc-license-admin/internal/handler/middleware"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"github.com/makkenzo/cnc-license-admin/internal/service"
	"go.uber.org/zap"
)

type RequestHandler struct {
	service *service.LicenseService
	logger  *zap.Logger
}

func NewRequestHandler(service *service.LicenseService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		service: service,
		logger:  logger.Named("RequestHandler"),
	}
}

// Submit godoc
// @Summary      Submit a license request
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body dto.SubmitRequestRequest true "Request details"
// @Success      200 {object} dto.SubmitRequestResponse
// @Failure      400 {object} dto.APIErrorResponse
// @Router       /user/request [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind submit request body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %w", ierr.ErrValidation, err))
		return
	}

	id, err := h.service.SubmitRequest(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SubmitRequestResponse{
		Success:   true,
		Message:   "Request submitted successfully",
		RequestID: id,
	})
}

func (h *RequestHandler) ListPending(c *gin.Context) {
	reqs, err := h.service.ListPendingRequests(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := dto.PendingRequestsResponse{
		Success:  true,
		Requests: make([]*dto.RequestResponse, len(reqs)),
	}
	for i, r := range reqs {
		resp.Requests[i] = dto.NewRequestResponse(r)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind approve request body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %w", ierr.ErrValidation, err))
		return
	}

	lic, err := h.service.ApproveRequest(c.Request.Context(), req.RequestID, req.Plan, req.DaysValid)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("Request approved by admin",
		zap.String("admin", middleware.AdminEmail(c)),
		zap.String("request_id", req.RequestID),
	)
	c.JSON(http.StatusOK, dto.ApproveRequestResponse{
		Success: true,
		Email:   lic.Email,
		Plan:    lic.Plan,
		Expiry:  lic.Expiry,
	})
}

func (h *RequestHandler) Reject(c *gin.Context) {
	var req dto.RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind reject request body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %w", ierr.ErrValidation, err))
		return
	}

	if err := h.service.RejectRequest(c.Request.Context(), req.RequestID, req.Reason); err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("Request rejection handled",
		zap.String("admin", middleware.AdminEmail(c)),
		zap.String("request_id", req.RequestID),
	)
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
