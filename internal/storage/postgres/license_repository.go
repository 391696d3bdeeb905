package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/cnc-license-admin/internal/domain/license"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"go.uber.org/zap"
)

const licenseColumns = `
    email, name, phone, plan, created, expiry, approved_at, status,
    extended_at, extension_reason, revoked_at, revocation_reason
`

type LicenseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewLicenseRepository(db *pgxpool.Pool, logger *zap.Logger) *LicenseRepository {
	return &LicenseRepository{
		db:     db,
		logger: logger.Named("LicenseRepository"),
	}
}

var _ license.Repository = (*LicenseRepository)(nil)

func (r *LicenseRepository) Upsert(ctx context.Context, lic *license.License) error {
	query := `
        INSERT INTO active_users (` + licenseColumns + `) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
        )
        ON CONFLICT (email) DO UPDATE SET
            name = EXCLUDED.name,
            phone = EXCLUDED.phone,
            plan = EXCLUDED.plan,
            created = EXCLUDED.created,
            expiry = EXCLUDED.expiry,
            approved_at = EXCLUDED.approved_at,
            status = EXCLUDED.status,
            extended_at = EXCLUDED.extended_at,
            extension_reason = EXCLUDED.extension_reason,
            revoked_at = EXCLUDED.revoked_at,
            revocation_reason = EXCLUDED.revocation_reason
    `

	_, err := r.db.Exec(ctx, query,
		lic.Email,
		lic.Name,
		lic.Phone,
		lic.Plan,
		lic.Created,
		lic.Expiry.Time(),
		lic.ApprovedAt,
		lic.Status,
		lic.ExtendedAt,
		lic.ExtensionReason,
		lic.RevokedAt,
		lic.RevocationReason,
	)
	if err != nil {
		r.logger.Error("Failed to upsert license", zap.String("email", lic.Email), zap.Error(err))
		return fmt.Errorf("database error on upsert license: %w", err)
	}

	r.logger.Info("License written", zap.String("email", lic.Email), zap.Stringer("expiry", lic.Expiry))
	return nil
}

func (r *LicenseRepository) FindByEmail(ctx context.Context, email string) (*license.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM active_users WHERE email = $1`

	lic, err := scanLicense(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.ErrLicenseNotFound
		}
		r.logger.Error("Failed to scan license row", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return lic, nil
}

func (r *LicenseRepository) List(ctx context.Context) ([]*license.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM active_users ORDER BY created DESC, email`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query licenses", zap.Error(err))
		return nil, fmt.Errorf("database error on list licenses: %w", err)
	}
	defer rows.Close()

	lics := make([]*license.License, 0)
	for rows.Next() {
		lic, err := scanLicense(rows)
		if err != nil {
			r.logger.Error("Failed to scan license row during list", zap.Error(err))
			return nil, fmt.Errorf("database scan error during list: %w", err)
		}
		lics = append(lics, lic)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating license rows", zap.Error(err))
		return nil, fmt.Errorf("database iteration error on list licenses: %w", err)
	}

	return lics, nil
}

func (r *LicenseRepository) Extend(ctx context.Context, email string, ext license.Extension) (license.Date, error) {
	query := `
        UPDATE active_users
        SET expiry = expiry + $2::integer, extended_at = $3, extension_reason = $4
        WHERE email = $1
        RETURNING expiry
    `

	var expiry time.Time
	err := r.db.QueryRow(ctx, query, email, ext.Days, ext.At, ext.Reason).Scan(&expiry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return license.Date{}, ierr.ErrLicenseNotFound
		}
		r.logger.Error("Failed to extend license", zap.String("email", email), zap.Error(err))
		return license.Date{}, fmt.Errorf("database error on extend license: %w", err)
	}

	return license.DateOf(expiry), nil
}

func (r *LicenseRepository) Revoke(ctx context.Context, email string, rev license.Revocation) error {
	query := `
        UPDATE active_users
        SET status = $2, revoked_at = $3, revocation_reason = $4
        WHERE email = $1
    `

	cmdTag, err := r.db.Exec(ctx, query, email, license.StatusRevoked, rev.At, rev.Reason)
	if err != nil {
		r.logger.Error("Failed to revoke license", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("database error on revoke license: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to revoke license, but no rows were affected", zap.String("email", email))
		return ierr.ErrLicenseNotFound
	}
	return nil
}

func scanLicense(row pgx.Row) (*license.License, error) {
	var (
		lic    license.License
		expiry time.Time
	)
	err := row.Scan(
		&lic.Email,
		&lic.Name,
		&lic.Phone,
		&lic.Plan,
		&lic.Created,
		&expiry,
		&lic.ApprovedAt,
		&lic.Status,
		&lic.ExtendedAt,
		&lic.ExtensionReason,
		&lic.RevokedAt,
		&lic.RevocationReason,
	)
	if err != nil {
		return nil, err
	}
	lic.Expiry = license.DateOf(expiry)
	return &lic, nil
}
