package dto

import (
	"time"

	"github.com/makkenzo/cnc-license-admin/internal/domain/license"
)

type ExtendLicenseRequest struct {
	Email  string `json:"email" binding:"required"`
	Days   int    `json:"days" binding:"required,gt=0,lte=36500"`
	Reason string `json:"reason"`
}

type ExtendLicenseResponse struct {
	Success bool         `json:"success"`
	Email   string       `json:"email"`
	Expiry  license.Date `json:"expiry"`
}

type RevokeLicenseRequest struct {
	Email  string `json:"email" binding:"required"`
	Reason string `json:"reason"`
}

type ApproveRequestResponse struct {
	Success bool         `json:"success"`
	Email   string       `json:"email"`
	Plan    string       `json:"plan"`
	Expiry  license.Date `json:"expiry"`
}

// ActiveUserResponse keeps expiry_timestamp for clients of the original payload.
type ActiveUserResponse struct {
	Email            string         `json:"email"`
	Name             string         `json:"name"`
	Phone            string         `json:"phone"`
	Plan             string         `json:"plan"`
	Status           license.Status `json:"status"`
	Expiry           license.Date   `json:"expiry"`
	ExpiryTimestamp  license.Date   `json:"expiry_timestamp"`
	DaysRemaining    int            `json:"days_remaining"`
	Created          time.Time      `json:"created"`
	ApprovedAt       *time.Time     `json:"approved_at,omitempty"`
	ExtendedAt       *time.Time     `json:"extended_at,omitempty"`
	ExtensionReason  string         `json:"extension_reason,omitempty"`
	RevokedAt        *time.Time     `json:"revoked_at,omitempty"`
	RevocationReason string         `json:"revocation_reason,omitempty"`
}

func NewActiveUserResponse(lic *license.License, daysRemaining int) *ActiveUserResponse {
	return &ActiveUserResponse{
		Email:            lic.Email,
		Name:             lic.Name,
		Phone:            lic.Phone,
		Plan:             lic.Plan,
		Status:           lic.Status,
		Expiry:           lic.Expiry,
		ExpiryTimestamp:  lic.Expiry,
		DaysRemaining:    daysRemaining,
		Created:          lic.Created,
		ApprovedAt:       lic.ApprovedAt,
		ExtendedAt:       lic.ExtendedAt,
		ExtensionReason:  lic.ExtensionReason,
		RevokedAt:        lic.RevokedAt,
		RevocationReason: lic.RevocationReason,
	}
}

type ActiveUsersResponse struct {
	Success bool                  `json:"success"`
	Users   []*ActiveUserResponse `json:"users"`
}

type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
}

type UserLoginResponse struct {
	Success bool              `json:"success"`
	User    *license.Snapshot `json:"user"`
}

type StatsResponse struct {
	TotalRequests    int `json:"total_requests"`
	PendingRequests  int `json:"pending_requests"`
	ApprovedRequests int `json:"approved_requests"`
	ActiveUsers      int `json:"active_users"`
	ExpiredUsers     int `json:"expired_users"`
}

// AsMap keys each counter by its JSON name.
func (s *StatsResponse) AsMap() map[string]int {
	return map[string]int{
		"total_requests":    s.TotalRequests,
		"pending_requests":  s.PendingRequests,
		"approved_requests": s.ApprovedRequests,
		"active_users":      s.ActiveUsers,
		"expired_users":     s.ExpiredUsers,
	}
}

type StatsEnvelope struct {
	Success bool           `json:"success"`
	Stats   *StatsResponse `json:"stats"`
}
