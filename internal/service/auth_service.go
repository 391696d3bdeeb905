package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/makkenzo/cnc-license-admin/internal/clock"
	"github.com/makkenzo/cnc-license-admin/internal/config"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminClaims is the session carried by an admin bearer token.
type AdminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type AuthService struct {
	admins       map[string]struct{}
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	issuer       string
	clock        clock.Clock
	logger       *zap.Logger
}

func NewAuthService(cfg *config.AuthConfig, clk clock.Clock, logger *zap.Logger) *AuthService {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		if e := normalizeEmail(email); e != "" {
			admins[e] = struct{}{}
		}
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		admins:       admins,
		passwordHash: []byte(cfg.AdminPasswordHash),
		secret:       []byte(cfg.JWTSecret),
		ttl:          ttl,
		issuer:       cfg.Issuer,
		clock:        clk,
		logger:       logger.Named("AuthService"),
	}
}

func (s *AuthService) IsAdmin(email string) bool {
	_, ok := s.admins[normalizeEmail(email)]
	return ok
}

// Login issues an admin token for an allowlisted email with the shared admin password.
func (s *AuthService) Login(_ context.Context, email, password string) (string, time.Time, error) {
	email = normalizeEmail(email)
	if !s.IsAdmin(email) {
		s.logger.Info("Admin login refused, email not allowlisted", zap.String("email", email))
		return "", time.Time{}, ierr.ErrAdminNotAllowed
	}
	if len(s.passwordHash) == 0 {
		s.logger.Warn("Admin login refused, no admin password hash configured")
		return "", time.Time{}, ierr.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		s.logger.Info("Admin login refused, wrong password", zap.String("email", email))
		return "", time.Time{}, ierr.ErrInvalidCredentials
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	claims := AdminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign admin token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("%w: sign admin token: %v", ierr.ErrInternalServer, err)
	}

	s.logger.Info("Admin token issued", zap.String("email", email), zap.Time("expires_at", expiresAt))
	return token, expiresAt, nil
}

func (s *AuthService) ValidateToken(_ context.Context, rawToken string) (*AdminClaims, error) {
	var claims AdminClaims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("Admin token expired")
		} else {
			s.logger.Warn("Failed to verify admin token", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidToken, err)
	}

	if strings.TrimSpace(claims.Email) == "" {
		return nil, ierr.ErrTokenInvalidClaims
	}
	if !s.IsAdmin(claims.Email) {
		s.logger.Warn("Admin token presented for an email no longer allowlisted", zap.String("email", claims.Email))
		return nil, fmt.Errorf("%w: %w", ierr.ErrForbidden, ierr.ErrAdminNotAllowed)
	}

	return &claims, nil
}
