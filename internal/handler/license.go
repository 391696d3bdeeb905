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

type LicenseHandler struct {
	service *service.LicenseService
	logger  *zap.Logger
}

func NewLicenseHandler(service *service.LicenseService, logger *zap.Logger) *LicenseHandler {
	return &LicenseHandler{
		service: service,
		logger:  logger.Named("LicenseHandler"),
	}
}

// Login godoc
// @Summary      Verify a user license
// @Description  Returns the license snapshot when the account is active and not expired.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body dto.UserLoginRequest true "Credentials"
// @Success      200 {object} dto.UserLoginResponse
// @Failure      403 {object} dto.APIErrorResponse "Account not active or expired"
// @Failure      404 {object} dto.APIErrorResponse "User not found"
// @Router       /user/login [post]
func (h *LicenseHandler) Login(c *gin.Context) {
	var req dto.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind user login body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %w", ierr.ErrValidation, err))
		return
	}

	snapshot, err := h.service.VerifyLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.UserLoginResponse{Success: true, User: snapshot})
}

func (h *LicenseHandler) ListActive(c *gin.Context) {
	lics, err := h.service.ListActiveLicenses(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := dto.ActiveUsersResponse{
		Success: true,
		Users:   make([]*dto.ActiveUserResponse, len(lics)),
	}
	for i, lic := range lics {
		resp.Users[i] = dto.NewActiveUserResponse(lic, h.service.DaysRemaining(lic.Expiry))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LicenseHandler) Extend(c *gin.Context) {
	var req dto.ExtendLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind extend body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %w", ierr.ErrValidation, err))
		return
	}

	expiry, err := h.service.ExtendLicense(c.Request.Context(), req.Email, req.Days, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("License extended by admin",
		zap.String("admin", middleware.AdminEmail(c)),
		zap.String("email", req.Email),
		zap.Int("days", req.Days),
	)
	c.JSON(http.StatusOK, dto.ExtendLicenseResponse{
		Success: true,
		Email:   req.Email,
		Expiry:  expiry,
	})
}

func (h *LicenseHandler) Revoke(c *gin.Context) {
	var req dto.RevokeLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind revoke body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %w", ierr.ErrValidation, err))
		return
	}

	if err := h.service.RevokeLicense(c.Request.Context(), req.Email, req.Reason); err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("License revoked by admin",
		zap.String("admin", middleware.AdminEmail(c)),
		zap.String("email", req.Email),
	)
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
