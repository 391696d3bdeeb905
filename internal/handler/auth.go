package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/cnc-license-admin/internal/handler/dto"
	"github.com/makkenzo/cnc-license-admin/internal/handler/middleware"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"github.com/makkenzo/cnc-license-admin/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service *service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(service *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.Named("AuthHandler"),
	}
}

// Login exchanges admin credentials for a bearer token. An email outside the
// allowlist gets success=false with status 200.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind admin login request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %w", ierr.ErrValidation, err))
		return
	}

	token, expiresAt, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ierr.ErrAdminNotAllowed) {
			c.JSON(http.StatusOK, dto.AdminLoginResponse{Success: false})
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.AdminLoginResponse{
		Success:   true,
		Token:     token,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		ExpiresAt: &expiresAt,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetAdminClaims(c)
	if claims == nil {
		_ = c.Error(ierr.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "email": claims.Email})
}
