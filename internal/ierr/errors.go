package ierr

import "errors"

var (
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("resource conflict")
	ErrInternalServer   = errors.New("internal server error")
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrRequestNotFound  = errors.New("request not found")
	ErrRequestResolved  = errors.New("request already resolved")
	ErrLicenseNotFound  = errors.New("user not found")
	ErrLicenseNotActive = errors.New("account not active")
	ErrLicenseExpired   = errors.New("account expired")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAdminNotAllowed    = errors.New("email is not an administrator")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenInvalidClaims = errors.New("token contains invalid claims type")
	ErrAPIKeyNotFound     = errors.New("api key not found or disabled")
)

// IsNotFound reports whether err denotes a missing request, license or other resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrLicenseNotFound) ||
		errors.Is(err, ErrAPIKeyNotFound)
}
