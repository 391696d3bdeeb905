package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/makkenzo/cnc-license-admin/internal/clock"
	"github.com/makkenzo/cnc-license-admin/internal/domain/license"
	"github.com/makkenzo/cnc-license-admin/internal/domain/request"
	"github.com/makkenzo/cnc-license-admin/internal/handler/dto"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"github.com/makkenzo/cnc-license-admin/internal/metrics"
	"go.uber.org/zap"
)

// LicenseService owns the request and license lifecycle.
type LicenseService struct {
	requests request.Repository
	licenses license.Repository
	clock    clock.Clock
	location *time.Location
	metrics  *metrics.LicenseMetrics
	logger   *zap.Logger
}

func NewLicenseService(
	requests request.Repository,
	licenses license.Repository,
	clk clock.Clock,
	location *time.Location,
	m *metrics.LicenseMetrics,
	logger *zap.Logger,
) *LicenseService {
	if location == nil {
		location = time.UTC
	}
	return &LicenseService{
		requests: requests,
		licenses: licenses,
		clock:    clk,
		location: location,
		metrics:  m,
		logger:   logger.Named("LicenseService"),
	}
}

// Today is the current calendar day in the configured timezone.
func (s *LicenseService) Today() license.Date {
	return license.DateOf(s.clock.Now().In(s.location))
}

func (s *LicenseService) DaysRemaining(expiry license.Date) int {
	return license.DaysRemaining(expiry, s.Today())
}

func (s *LicenseService) SubmitRequest(ctx context.Context, in *dto.SubmitRequestRequest) (string, error) {
	email := normalizeEmail(in.Email)
	plan := strings.TrimSpace(in.Plan)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ierr.ErrValidation)
	}
	if plan == "" {
		return "", fmt.Errorf("%w: plan is required", ierr.ErrValidation)
	}

	deviceInfo := in.DeviceInfo
	if len(deviceInfo) == 0 || string(deviceInfo) == "null" {
		deviceInfo = json.RawMessage(`{}`)
	}

	req := &request.Request{
		Name:       strings.TrimSpace(in.Name),
		Email:      email,
		Phone:      strings.TrimSpace(in.Phone),
		Plan:       plan,
		Method:     strings.TrimSpace(in.Method),
		Trx:        strings.TrimSpace(in.Trx),
		DeviceInfo: deviceInfo,
		Status:     request.StatusPending,
		Created:    s.clock.Now(),
	}

	id, err := s.requests.Create(ctx, req)
	if err != nil {
		s.logger.Error("Failed to store license request", zap.String("email", email), zap.Error(err))
		return "", storeError("create request", err)
	}

	s.metrics.IncSubmitted()
	s.logger.Info("License request submitted", zap.String("request_id", id), zap.String("email", email), zap.String("plan", plan))
	return id, nil
}

func (s *LicenseService) ListPendingRequests(ctx context.Context) ([]*request.Request, error) {
	reqs, err := s.requests.ListByStatus(ctx, request.StatusPending)
	if err != nil {
		s.logger.Error("Failed to list pending requests", zap.Error(err))
		return nil, storeError("list pending requests", err)
	}
	s.logger.Debug("Pending requests listed", zap.Int("count", len(reqs)))
	return reqs, nil
}

// ApproveRequest grants plan for daysValid days from today to the requester and
// marks the request approved. The license write and the request update are two
// separate store writes.
func (s *LicenseService) ApproveRequest(ctx context.Context, requestID, plan string, daysValid int) (*license.License, error) {
	plan = strings.TrimSpace(plan)
	if plan == "" {
		return nil, fmt.Errorf("%w: plan is required", ierr.ErrValidation)
	}
	if daysValid <= 0 || daysValid > license.MaxTermDays {
		return nil, fmt.Errorf("%w: days_valid must be between 1 and %d", ierr.ErrValidation, license.MaxTermDays)
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.logger.Info("Request not found for approval", zap.String("request_id", requestID))
			return nil, err
		}
		s.logger.Error("Failed to load request for approval", zap.String("request_id", requestID), zap.Error(err))
		return nil, storeError("find request", err)
	}
	if req.Status != request.StatusPending {
		s.logger.Warn("Refusing to approve a resolved request", zap.String("request_id", requestID), zap.String("status", string(req.Status)))
		return nil, fmt.Errorf("%w: %w (status %s)", ierr.ErrConflict, ierr.ErrRequestResolved, req.Status)
	}

	now := s.clock.Now()
	lic := &license.License{
		Email:      req.Email,
		Name:       req.Name,
		Phone:      req.Phone,
		Plan:       plan,
		Created:    req.Created,
		Expiry:     license.DateOf(now.In(s.location)).AddDays(daysValid),
		ApprovedAt: &now,
		Status:     license.StatusActive,
	}

	if err := s.licenses.Upsert(ctx, lic); err != nil {
		s.logger.Error("Failed to write license for approved request", zap.String("request_id", requestID), zap.String("email", req.Email), zap.Error(err))
		return nil, storeError("upsert license", err)
	}

	resolved, err := s.requests.Resolve(ctx, requestID, request.Approval(now, plan, daysValid))
	if err != nil {
		s.logger.Error("License written but request could not be marked approved",
			zap.String("request_id", requestID),
			zap.String("email", req.Email),
			zap.Error(err),
		)
		return nil, storeError("mark request approved", err)
	}
	if !resolved {
		s.logger.Warn("License written but request was resolved concurrently",
			zap.String("request_id", requestID),
			zap.String("email", req.Email),
		)
		return nil, fmt.Errorf("%w: %w: license for %s was written before the request was resolved elsewhere",
			ierr.ErrConflict, ierr.ErrRequestResolved, req.Email)
	}

	s.metrics.IncResolved(string(request.StatusApproved))
	s.logger.Info("Request approved",
		zap.String("request_id", requestID),
		zap.String("email", lic.Email),
		zap.String("plan", plan),
		zap.Stringer("expiry", lic.Expiry),
	)
	return lic, nil
}

// RejectRequest records a rejection. Unknown or already resolved ids are left untouched.
func (s *LicenseService) RejectRequest(ctx context.Context, requestID, reason string) error {
	resolved, err := s.requests.Resolve(ctx, requestID, request.Rejection(s.clock.Now(), strings.TrimSpace(reason)))
	if err != nil {
		s.logger.Error("Failed to reject request", zap.String("request_id", requestID), zap.Error(err))
		return storeError("mark request rejected", err)
	}
	if !resolved {
		s.logger.Warn("No pending request to reject", zap.String("request_id", requestID))
		return nil
	}

	s.metrics.IncResolved(string(request.StatusRejected))
	s.logger.Info("Request rejected", zap.String("request_id", requestID))
	return nil
}

func (s *LicenseService) ListActiveLicenses(ctx context.Context) ([]*license.License, error) {
	lics, err := s.licenses.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list licenses", zap.Error(err))
		return nil, storeError("list licenses", err)
	}
	return lics, nil
}

// ExtendLicense pushes the stored expiry forward by days. The status is left as is.
func (s *LicenseService) ExtendLicense(ctx context.Context, email string, days int, reason string) (license.Date, error) {
	email = normalizeEmail(email)
	if email == "" {
		return license.Date{}, fmt.Errorf("%w: email is required", ierr.ErrValidation)
	}
	if days <= 0 || days > license.MaxTermDays {
		return license.Date{}, fmt.Errorf("%w: days must be between 1 and %d", ierr.ErrValidation, license.MaxTermDays)
	}

	expiry, err := s.licenses.Extend(ctx, email, license.Extension{
		Days:   days,
		At:     s.clock.Now(),
		Reason: strings.TrimSpace(reason),
	})
	if err != nil {
		if ierr.IsNotFound(err) {
			s.logger.Info("License not found for extension", zap.String("email", email))
			return license.Date{}, err
		}
		s.logger.Error("Failed to extend license", zap.String("email", email), zap.Error(err))
		return license.Date{}, storeError("extend license", err)
	}

	s.metrics.IncOperation("extend")
	s.logger.Info("License extended", zap.String("email", email), zap.Int("days", days), zap.Stringer("expiry", expiry))
	return expiry, nil
}

// RevokeLicense flips the license to revoked. The expiry is kept as a record.
func (s *LicenseService) RevokeLicense(ctx context.Context, email, reason string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ierr.ErrValidation)
	}

	err := s.licenses.Revoke(ctx, email, license.Revocation{
		At:     s.clock.Now(),
		Reason: strings.TrimSpace(reason),
	})
	if err != nil {
		if ierr.IsNotFound(err) {
			s.logger.Info("License not found for revocation", zap.String("email", email))
			return err
		}
		s.logger.Error("Failed to revoke license", zap.String("email", email), zap.Error(err))
		return storeError("revoke license", err)
	}

	s.metrics.IncOperation("revoke")
	s.logger.Info("License revoked", zap.String("email", email))
	return nil
}

// VerifyLogin checks the entitlement of email. The password is not checked here.
// Status is checked before expiry, so a revoked license reports not-active even when expired.
func (s *LicenseService) VerifyLogin(ctx context.Context, email, _ string) (*license.Snapshot, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ierr.ErrValidation)
	}

	lic, err := s.licenses.FindByEmail(ctx, email)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.metrics.IncLoginCheck("not_found")
			return nil, err
		}
		s.metrics.IncLoginCheck("error")
		s.logger.Error("Failed to load license for login", zap.String("email", email), zap.Error(err))
		return nil, storeError("find license", err)
	}

	if lic.Status != license.StatusActive {
		s.metrics.IncLoginCheck("not_active")
		s.logger.Info("Login refused, license not active", zap.String("email", email), zap.String("status", string(lic.Status)))
		return nil, ierr.ErrLicenseNotActive
	}

	if lic.IsExpired(s.Today()) {
		s.metrics.IncLoginCheck("expired")
		s.logger.Info("Login refused, license expired", zap.String("email", email), zap.Stringer("expiry", lic.Expiry))
		return nil, ierr.ErrLicenseExpired
	}

	s.metrics.IncLoginCheck("ok")
	snapshot := lic.Snapshot()
	return &snapshot, nil
}

// ComputeStats scans both collections. Active users are counted by status and
// expired users by date, so one license may count towards both.
func (s *LicenseService) ComputeStats(ctx context.Context) (*dto.StatsResponse, error) {
	reqs, err := s.requests.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list requests for stats", zap.Error(err))
		return nil, storeError("list requests", err)
	}
	lics, err := s.licenses.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list licenses for stats", zap.Error(err))
		return nil, storeError("list licenses", err)
	}

	stats := &dto.StatsResponse{TotalRequests: len(reqs)}
	for _, r := range reqs {
		switch r.Status {
		case request.StatusPending:
			stats.PendingRequests++
		case request.StatusApproved:
			stats.ApprovedRequests++
		}
	}

	today := s.Today()
	for _, l := range lics {
		if l.Status == license.StatusActive {
			stats.ActiveUsers++
		}
		if l.IsExpired(today) {
			stats.ExpiredUsers++
		}
	}

	return stats, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ierr.ErrStoreUnavailable, op, err)
}
