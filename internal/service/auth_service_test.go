package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/makkenzo/cnc-license-admin/internal/clock"
	"github.com/makkenzo/cnc-license-admin/internal/config"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testAdminPassword = "s3cret-admin"

func newTestAuthService(t *testing.T, clk clock.Clock, admins ...string) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(&config.AuthConfig{
		AdminEmails:       admins,
		AdminPasswordHash: string(hash),
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		Issuer:            "cnc-license-admin",
	}, clk, zap.NewNop())
}

func TestAuthServiceIsAdmin(t *testing.T) {
	svc := newTestAuthService(t, clock.NewFixed(time.Now()), " Admin@Example.com ", "")

	assert.True(t, svc.IsAdmin("admin@example.com"))
	assert.True(t, svc.IsAdmin("ADMIN@example.com"))
	assert.False(t, svc.IsAdmin("someone@example.com"))
	assert.False(t, svc.IsAdmin(""))
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	svc := newTestAuthService(t, clk, "admin@example.com")
	ctx := context.Background()

	token, expiresAt, err := svc.Login(ctx, "Admin@Example.com", testAdminPassword)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.Equal(t, "cnc-license-admin", claims.Issuer)

	clk.Advance(2 * time.Hour)
	_, err = svc.ValidateToken(ctx, token)
	require.ErrorIs(t, err, ierr.ErrInvalidToken)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc := newTestAuthService(t, clock.NewFixed(time.Now()), "admin@example.com")
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "intruder@example.com", testAdminPassword)
	require.ErrorIs(t, err, ierr.ErrAdminNotAllowed)

	_, _, err = svc.Login(ctx, "admin@example.com", "wrong")
	require.ErrorIs(t, err, ierr.ErrInvalidCredentials)
}

func TestAuthServiceLoginWithoutPasswordHash(t *testing.T) {
	svc := NewAuthService(&config.AuthConfig{
		AdminEmails: []string{"admin@example.com"},
		JWTSecret:   "test-secret",
	}, clock.System(), zap.NewNop())

	_, _, err := svc.Login(context.Background(), "admin@example.com", "")
	require.ErrorIs(t, err, ierr.ErrInvalidCredentials)
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestAuthService(t, clock.NewFixed(now), "admin@example.com")
	ctx := context.Background()

	sign := func(secret string, method jwt.SigningMethod, claims AdminClaims) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	valid := AdminClaims{
		Email: "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "cnc-license-admin",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	_, err := svc.ValidateToken(ctx, sign("other-secret", jwt.SigningMethodHS256, valid))
	require.ErrorIs(t, err, ierr.ErrInvalidToken)

	_, err = svc.ValidateToken(ctx, sign("test-secret", jwt.SigningMethodHS512, valid))
	require.ErrorIs(t, err, ierr.ErrInvalidToken)

	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"
	_, err = svc.ValidateToken(ctx, sign("test-secret", jwt.SigningMethodHS256, wrongIssuer))
	require.ErrorIs(t, err, ierr.ErrInvalidToken)

	noExpiry := valid
	noExpiry.ExpiresAt = nil
	_, err = svc.ValidateToken(ctx, sign("test-secret", jwt.SigningMethodHS256, noExpiry))
	require.ErrorIs(t, err, ierr.ErrInvalidToken)

	delisted := valid
	delisted.Email = "former@example.com"
	_, err = svc.ValidateToken(ctx, sign("test-secret", jwt.SigningMethodHS256, delisted))
	require.ErrorIs(t, err, ierr.ErrForbidden)
	require.ErrorIs(t, err, ierr.ErrAdminNotAllowed)

	_, err = svc.ValidateToken(ctx, "not-a-jwt")
	require.ErrorIs(t, err, ierr.ErrInvalidToken)
}
