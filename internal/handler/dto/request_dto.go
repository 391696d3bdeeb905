package dto

import (
	"encoding/json"
	"time"

	"github.com/makkenzo/cnc-license-admin/internal/domain/request"
)

type SubmitRequestRequest struct {
	Name       string          `json:"name"`
	Email      string          `json:"email" binding:"required"`
	Phone      string          `json:"phone"`
	Plan       string          `json:"plan" binding:"required"`
	Method     string          `json:"method"`
	Trx        string          `json:"trx"`
	DeviceInfo json.RawMessage `json:"device_info" swaggertype:"object"`
}

type SubmitRequestResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type RequestResponse struct {
	RequestID  string          `json:"request_id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone"`
	Plan       string          `json:"plan"`
	Method     string          `json:"method"`
	Trx        string          `json:"trx"`
	DeviceInfo json.RawMessage `json:"device_info" swaggertype:"object"`
	Status     request.Status  `json:"status"`
	Created    time.Time       `json:"created"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
	DaysValid  *int            `json:"days_valid,omitempty"`
	RejectedAt *time.Time      `json:"rejected_at,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

func NewRequestResponse(req *request.Request) *RequestResponse {
	return &RequestResponse{
		RequestID:  req.ID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Plan:       req.Plan,
		Method:     req.Method,
		Trx:        req.Trx,
		DeviceInfo: req.DeviceInfo,
		Status:     req.Status,
		Created:    req.Created,
		ApprovedAt: req.ApprovedAt,
		DaysValid:  req.DaysValid,
		RejectedAt: req.RejectedAt,
		Reason:     req.Reason,
	}
}

type PendingRequestsResponse struct {
	Success  bool               `json:"success"`
	Requests []*RequestResponse `json:"requests"`
}

type ApproveRequestRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	Plan      string `json:"plan" binding:"required"`
	DaysValid int    `json:"days_valid" binding:"required,gt=0,lte=36500"`
}

type RejectRequestRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	Reason    string `json:"reason"`
}
