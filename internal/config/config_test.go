package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
auth:
  jwtSecret: secret
  adminEmails:
    - admin@example.com
    - ops@example.com
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownPeriod)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, []string{"admin@example.com", "ops@example.com"}, cfg.Auth.AdminEmails)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "cnc-license-admin", cfg.Auth.Issuer)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Worker.Enabled)
	assert.Equal(t, "@every 5m", cfg.Worker.StatsSchedule)

	loc, err := cfg.License.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
auth:
  jwtSecret: from-file
`)
	t.Setenv("AUTH_JWTSECRET", "from-env")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("LICENSE_TIMEZONE", "Asia/Dhaka")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "8080", cfg.Server.Port)

	loc, err := cfg.License.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Dhaka", loc.String())
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "postgres without url",
			body: "storage:\n  driver: postgres\nauth:\n  jwtSecret: s\n",
		},
		{
			name: "unknown driver",
			body: "storage:\n  driver: firestore\nauth:\n  jwtSecret: s\n",
		},
		{
			name: "missing jwt secret",
			body: "storage:\n  driver: memory\n",
		},
		{
			name: "bad timezone",
			body: "storage:\n  driver: memory\nauth:\n  jwtSecret: s\nlicense:\n  timezone: Mars/Olympus\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}
