package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/makkenzo/cnc-license-admin/internal/handler/dto"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"go.uber.org/zap"
)

func ErrorHandlerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("ErrorHandler")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		status, errResponse := mapError(err)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		} else {
			log.Debug("Request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
		}

		errResponse.Error = errResponse.Message
		c.AbortWithStatusJSON(status, errResponse)
	}
}

func mapError(err error) (int, dto.APIErrorResponse) {
	errResponse := dto.APIErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "An unexpected error occurred.",
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		errResponse.Code = "VALIDATION_ERROR"
		errResponse.Message = "Input validation failed."
		errResponse.Details = buildValidationErrors(ve)
		return http.StatusBadRequest, errResponse
	}

	switch {
	case errors.Is(err, ierr.ErrValidation):
		errResponse.Code = "VALIDATION_ERROR"
		errResponse.Message = err.Error()
		return http.StatusBadRequest, errResponse
	case errors.Is(err, ierr.ErrUnauthorized),
		errors.Is(err, ierr.ErrInvalidCredentials),
		errors.Is(err, ierr.ErrInvalidToken),
		errors.Is(err, ierr.ErrTokenInvalidClaims):
		errResponse.Code = "UNAUTHENTICATED"
		errResponse.Message = "Authentication required or failed."
		return http.StatusUnauthorized, errResponse
	case errors.Is(err, ierr.ErrForbidden):
		errResponse.Code = "FORBIDDEN"
		errResponse.Message = "Access denied."
		return http.StatusForbidden, errResponse
	case errors.Is(err, ierr.ErrLicenseNotActive):
		errResponse.Code = "LICENSE_NOT_ACTIVE"
		errResponse.Message = "Account not active"
		return http.StatusForbidden, errResponse
	case errors.Is(err, ierr.ErrLicenseExpired):
		errResponse.Code = "LICENSE_EXPIRED"
		errResponse.Message = "Account expired"
		return http.StatusForbidden, errResponse
	case errors.Is(err, ierr.ErrLicenseNotFound):
		errResponse.Code = "NOT_FOUND"
		errResponse.Message = "User not found"
		return http.StatusNotFound, errResponse
	case errors.Is(err, ierr.ErrRequestNotFound):
		errResponse.Code = "NOT_FOUND"
		errResponse.Message = "Request not found"
		return http.StatusNotFound, errResponse
	case ierr.IsNotFound(err):
		errResponse.Code = "NOT_FOUND"
		errResponse.Message = "The requested resource was not found."
		return http.StatusNotFound, errResponse
	case errors.Is(err, ierr.ErrConflict):
		errResponse.Code = "CONFLICT"
		errResponse.Message = err.Error()
		return http.StatusConflict, errResponse
	case errors.Is(err, ierr.ErrStoreUnavailable):
		errResponse.Code = "STORE_UNAVAILABLE"
		errResponse.Message = "Storage is temporarily unavailable."
		return http.StatusServiceUnavailable, errResponse
	}

	return http.StatusInternalServerError, errResponse
}

func buildValidationErrors(ve validator.ValidationErrors) []dto.FieldError {
	details := make([]dto.FieldError, len(ve))
	for i, fe := range ve {
		details[i] = dto.FieldError{
			Field:   fe.Field(),
			Message: getValidationErrorMsg(fe),
		}
	}
	return details
}

func getValidationErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "email":
		return fmt.Sprintf("Field '%s' must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of [%s]", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("Field '%s' must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("Field '%s' must be less than or equal to %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("Field '%s' must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("Field '%s' failed validation on the '%s' tag", fe.Field(), fe.Tag())
	}
}
