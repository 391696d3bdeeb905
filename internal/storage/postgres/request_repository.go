package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/cnc-license-admin/internal/domain/request"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"go.uber.org/zap"
)

const requestColumns = `
    id::text, name, email, phone, plan, method, trx, device_info,
    status, created, approved_at, days_valid, rejected_at, reason
`

type RequestRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRequestRepository(db *pgxpool.Pool, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger.Named("RequestRepository"),
	}
}

var _ request.Repository = (*RequestRepository)(nil)

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) (string, error) {
	query := `
        INSERT INTO requests (
            id, name, email, phone, plan, method, trx, device_info, status, created
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
        )
    `
	id := uuid.New()

	_, err := r.db.Exec(ctx, query,
		id,
		req.Name,
		req.Email,
		req.Phone,
		req.Plan,
		req.Method,
		req.Trx,
		req.DeviceInfo,
		req.Status,
		req.Created,
	)
	if err != nil {
		r.logger.Error("Failed to insert request", zap.String("email", req.Email), zap.Error(err))
		return "", fmt.Errorf("database error on create request: %w", err)
	}

	r.logger.Debug("Request inserted", zap.String("id", id.String()))
	return id.String(), nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (*request.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ierr.ErrRequestNotFound
	}

	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`

	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.ErrRequestNotFound
		}
		r.logger.Error("Failed to scan request row", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return req, nil
}

func (r *RequestRepository) ListByStatus(ctx context.Context, status request.Status) ([]*request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE status = $1 ORDER BY created DESC, id`
	return r.list(ctx, query, status)
}

func (r *RequestRepository) List(ctx context.Context) ([]*request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests ORDER BY created DESC, id`
	return r.list(ctx, query)
}

func (r *RequestRepository) Resolve(ctx context.Context, id string, res request.Resolution) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	var (
		query string
		args  []any
	)
	switch res.Status {
	case request.StatusApproved:
		query = `
            UPDATE requests SET status = $2, approved_at = $3, plan = $4, days_valid = $5
            WHERE id = $1 AND status = 'pending'
        `
		args = []any{id, res.Status, res.At, res.Plan, res.DaysValid}
	case request.StatusRejected:
		query = `
            UPDATE requests SET status = $2, rejected_at = $3, reason = $4
            WHERE id = $1 AND status = 'pending'
        `
		args = []any{id, res.Status, res.At, res.Reason}
	default:
		return false, fmt.Errorf("%w: cannot resolve request to status %q", ierr.ErrValidation, res.Status)
	}

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to resolve request", zap.String("id", id), zap.String("status", string(res.Status)), zap.Error(err))
		return false, fmt.Errorf("database error on resolve request: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Debug("No pending request matched resolution", zap.String("id", id))
		return false, nil
	}

	r.logger.Info("Request resolved", zap.String("id", id), zap.String("status", string(res.Status)))
	return true, nil
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...any) ([]*request.Request, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query requests", zap.Error(err))
		return nil, fmt.Errorf("database error on list requests: %w", err)
	}
	defer rows.Close()

	reqs := make([]*request.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			r.logger.Error("Failed to scan request row during list", zap.Error(err))
			return nil, fmt.Errorf("database scan error during list: %w", err)
		}
		reqs = append(reqs, req)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating request rows", zap.Error(err))
		return nil, fmt.Errorf("database iteration error on list requests: %w", err)
	}

	return reqs, nil
}

func scanRequest(row pgx.Row) (*request.Request, error) {
	var req request.Request
	err := row.Scan(
		&req.ID,
		&req.Name,
		&req.Email,
		&req.Phone,
		&req.Plan,
		&req.Method,
		&req.Trx,
		&req.DeviceInfo,
		&req.Status,
		&req.Created,
		&req.ApprovedAt,
		&req.DaysValid,
		&req.RejectedAt,
		&req.Reason,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
