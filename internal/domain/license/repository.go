package license

import (
	"context"
)

// Repository stores licenses in the active_users collection, one document per email.
type Repository interface {
	// Upsert writes lic under lic.Email, replacing any previous document entirely.
	Upsert(ctx context.Context, lic *License) error
	FindByEmail(ctx context.Context, email string) (*License, error)
	// List returns every license, most recently created first.
	List(ctx context.Context) ([]*License, error)
	// Extend adds ext.Days to the stored expiry in one step and returns the new expiry.
	Extend(ctx context.Context, email string, ext Extension) (Date, error)
	Revoke(ctx context.Context, email string, rev Revocation) error
}
