package memstorage

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/makkenzo/cnc-license-admin/internal/domain/license"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
)

type LicenseRepository struct {
	mu       sync.RWMutex
	licenses map[string]*license.License
}

func NewLicenseRepository() *LicenseRepository {
	return &LicenseRepository{
		licenses: make(map[string]*license.License),
	}
}

var _ license.Repository = (*LicenseRepository)(nil)

func (r *LicenseRepository) Upsert(_ context.Context, lic *license.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.licenses[lic.Email] = cloneLicense(lic)
	return nil
}

func (r *LicenseRepository) FindByEmail(_ context.Context, email string) (*license.License, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lic, ok := r.licenses[email]
	if !ok {
		return nil, ierr.ErrLicenseNotFound
	}
	return cloneLicense(lic), nil
}

func (r *LicenseRepository) List(_ context.Context) ([]*license.License, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*license.License, 0, len(r.licenses))
	for _, lic := range r.licenses {
		out = append(out, cloneLicense(lic))
	}
	slices.SortStableFunc(out, func(a, b *license.License) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
	return out, nil
}

func (r *LicenseRepository) Extend(_ context.Context, email string, ext license.Extension) (license.Date, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lic, ok := r.licenses[email]
	if !ok {
		return license.Date{}, ierr.ErrLicenseNotFound
	}
	at := ext.At
	lic.Expiry = lic.Expiry.AddDays(ext.Days)
	lic.ExtendedAt = &at
	lic.ExtensionReason = ext.Reason
	return lic.Expiry, nil
}

func (r *LicenseRepository) Revoke(_ context.Context, email string, rev license.Revocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lic, ok := r.licenses[email]
	if !ok {
		return ierr.ErrLicenseNotFound
	}
	at := rev.At
	lic.Status = license.StatusRevoked
	lic.RevokedAt = &at
	lic.RevocationReason = rev.Reason
	return nil
}

func cloneLicense(lic *license.License) *license.License {
	c := *lic
	c.ApprovedAt = cloneTime(lic.ApprovedAt)
	c.ExtendedAt = cloneTime(lic.ExtendedAt)
	c.RevokedAt = cloneTime(lic.RevokedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
