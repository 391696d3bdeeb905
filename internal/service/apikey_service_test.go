package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/cnc-license-admin/internal/clock"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"github.com/makkenzo/cnc-license-admin/internal/storage/memstorage"
	"github.com/makkenzo/cnc-license-admin/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAPIKeyServiceLifecycle(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := memstorage.NewAPIKeyRepository()
	svc := NewAPIKeyService(repo, clock.NewFixed(now), zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateAPIKey(ctx, "admin panel")
	require.NoError(t, err)
	assert.Equal(t, "admin panel", created.Description)
	assert.Equal(t, now, created.CreatedAt)

	prefix, ok := util.ParseAPIKeyPrefix(created.FullKey)
	require.True(t, ok)
	assert.Equal(t, created.Prefix, prefix)

	stored, err := repo.FindByPrefix(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, util.HashAPIKey(created.FullKey), stored.KeyHash)

	keys, err := svc.ListAPIKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, keys[0].IsEnabled)
	assert.Equal(t, created.ID, keys[0].ID)

	require.NoError(t, svc.RevokeAPIKey(ctx, created.ID))
	_, err = repo.FindByPrefix(ctx, prefix)
	require.ErrorIs(t, err, ierr.ErrAPIKeyNotFound)

	err = svc.RevokeAPIKey(ctx, uuid.New())
	require.ErrorIs(t, err, ierr.ErrAPIKeyNotFound)
	assert.True(t, ierr.IsNotFound(err))
}
