package license

import (
	"time"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// License is the active entitlement of one identity, keyed by email.
type License struct {
	Email            string     `db:"email" json:"email"`
	Name             string     `db:"name" json:"name"`
	Phone            string     `db:"phone" json:"phone"`
	Plan             string     `db:"plan" json:"plan"`
	Created          time.Time  `db:"created" json:"created"`
	Expiry           Date       `db:"expiry" json:"expiry"`
	ApprovedAt       *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	Status           Status     `db:"status" json:"status"`
	ExtendedAt       *time.Time `db:"extended_at" json:"extended_at,omitempty"`
	ExtensionReason  string     `db:"extension_reason" json:"extension_reason,omitempty"`
	RevokedAt        *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	RevocationReason string     `db:"revocation_reason" json:"revocation_reason,omitempty"`
}

// IsExpired reports whether the expiry day lies before today.
func (l *License) IsExpired(today Date) bool {
	return l.Expiry.Before(today)
}

func (l *License) DaysRemaining(today Date) int {
	return DaysRemaining(l.Expiry, today)
}

// DaysRemaining counts whole days from today until expiry, never below zero.
func DaysRemaining(expiry, today Date) int {
	if expiry.IsZero() {
		return 0
	}
	return max(0, expiry.DaysSince(today))
}

// Snapshot is the view of a license returned by a successful login check.
type Snapshot struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Plan   string `json:"plan"`
	Expiry Date   `json:"expiry"`
}

func (l *License) Snapshot() Snapshot {
	return Snapshot{
		Email:  l.Email,
		Name:   l.Name,
		Plan:   l.Plan,
		Expiry: l.Expiry,
	}
}

// Extension is the audit record written by an extend operation.
type Extension struct {
	Days   int
	At     time.Time
	Reason string
}

// Revocation is the audit record written by a revoke operation.
type Revocation struct {
	At     time.Time
	Reason string
}
