package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/makkenzo/cnc-license-admin/internal/clock"
	"github.com/makkenzo/cnc-license-admin/internal/domain/apikey"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
	"github.com/makkenzo/cnc-license-admin/internal/util"
	"go.uber.org/zap"
)

const (
	apiKeyHeader = "X-API-Key"
)

// APIKeyAuthMiddleware admits machine clients presenting an enabled key in X-API-Key.
func APIKeyAuthMiddleware(repo apikey.Repository, clk clock.Clock, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("APIKeyAuthMiddleware")
	return func(c *gin.Context) {
		apiKeyFromHeader := c.GetHeader(apiKeyHeader)
		if apiKeyFromHeader == "" {
			log.Debug("API Key header is missing", zap.String("header", apiKeyHeader))
			_ = c.Error(fmt.Errorf("%w: api key required", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		prefix, ok := util.ParseAPIKeyPrefix(apiKeyFromHeader)
		if !ok {
			log.Warn("Invalid API key format received")
			_ = c.Error(fmt.Errorf("%w: invalid api key format", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		keyRecord, err := repo.FindByPrefix(c.Request.Context(), prefix)
		if err != nil {
			if errors.Is(err, apikey.ErrAPIKeyNotFound) {
				log.Warn("API key not found or disabled", zap.String("prefix", prefix))
				_ = c.Error(fmt.Errorf("%w: invalid or disabled api key", ierr.ErrForbidden))
				c.Abort()
				return
			}

			log.Error("Failed to query API key repository", zap.String("prefix", prefix), zap.Error(err))
			_ = c.Error(fmt.Errorf("%w: api key lookup: %w", ierr.ErrStoreUnavailable, err))
			c.Abort()
			return
		}

		receivedKeyHash := util.HashAPIKey(apiKeyFromHeader)

		if subtle.ConstantTimeCompare([]byte(receivedKeyHash), []byte(keyRecord.KeyHash)) != 1 {
			log.Warn("API key hash mismatch", zap.String("prefix", prefix), zap.String("key_id", keyRecord.ID.String()))
			_ = c.Error(fmt.Errorf("%w: invalid or disabled api key", ierr.ErrForbidden))
			c.Abort()
			return
		}

		go func(id uuid.UUID, usedAt time.Time) {
			ctxAsync, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if errUpdate := repo.UpdateLastUsed(ctxAsync, id, usedAt); errUpdate != nil {
				log.Error("Failed to update API key last used time asynchronously", zap.String("key_id", id.String()), zap.Error(errUpdate))
			}
		}(keyRecord.ID, clk.Now())

		log.Debug("API key validated", zap.String("prefix", prefix), zap.String("key_id", keyRecord.ID.String()))
		c.Next()
	}
}
