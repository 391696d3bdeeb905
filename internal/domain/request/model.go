package request

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsResolved() bool {
	return s == StatusApproved || s == StatusRejected
}

// Request is a user's claim to a license plan. It is kept forever as an audit trail.
type Request struct {
	ID         string          `db:"id" json:"request_id"`
	Name       string          `db:"name" json:"name"`
	Email      string          `db:"email" json:"email"`
	Phone      string          `db:"phone" json:"phone"`
	Plan       string          `db:"plan" json:"plan"`
	Method     string          `db:"method" json:"method"`
	Trx        string          `db:"trx" json:"trx"`
	DeviceInfo json.RawMessage `db:"device_info" json:"device_info"`
	Status     Status          `db:"status" json:"status"`
	Created    time.Time       `db:"created" json:"created"`
	ApprovedAt *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	DaysValid  *int            `db:"days_valid" json:"days_valid,omitempty"`
	RejectedAt *time.Time      `db:"rejected_at" json:"rejected_at,omitempty"`
	Reason     string          `db:"reason" json:"reason,omitempty"`
}

// Resolution moves a pending request to approved or rejected.
type Resolution struct {
	Status Status
	At     time.Time
	// Plan and DaysValid are set on approval; Plan replaces the requested plan.
	Plan      string
	DaysValid int
	// Reason is set on rejection.
	Reason string
}

// Approval builds the resolution recorded when a request is approved.
func Approval(at time.Time, plan string, daysValid int) Resolution {
	return Resolution{Status: StatusApproved, At: at, Plan: plan, DaysValid: daysValid}
}

// Rejection builds the resolution recorded when a request is rejected.
func Rejection(at time.Time, reason string) Resolution {
	return Resolution{Status: StatusRejected, At: at, Reason: reason}
}

// Apply writes res onto r. Callers are expected to have checked r is still pending.
func (r *Request) Apply(res Resolution) {
	at := res.At
	r.Status = res.Status
	switch res.Status {
	case StatusApproved:
		days := res.DaysValid
		r.ApprovedAt = &at
		r.Plan = res.Plan
		r.DaysValid = &days
	case StatusRejected:
		r.RejectedAt = &at
		r.Reason = res.Reason
	}
}
