package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/makkenzo/cnc-license-admin/internal/domain/apikey"
)

func generateRandomString(length int) (string, error) {
	// Retries when stripping leaves fewer than length characters.
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	str := base64.URLEncoding.EncodeToString(b)
	str = strings.NewReplacer("-", "", "_", "", "=", "").Replace(str)
	if len(str) < length {
		return generateRandomString(length)
	}
	return str[:length], nil
}

// GenerateAPIKey returns a key of the form cnc_<prefix>_<secret> with its prefix and hash.
func GenerateAPIKey() (fullKey string, prefix string, keyHash string, err error) {
	prefix, err = generateRandomString(apikey.APIKeyPrefixLength)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate prefix: %w", err)
	}

	secret, err := generateRandomString(apikey.APIKeySecretLength)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate secret: %w", err)
	}

	fullKey = fmt.Sprintf(apikey.APIKeyFormat, prefix, secret)
	return fullKey, prefix, HashAPIKey(fullKey), nil
}

func HashAPIKey(fullKey string) string {
	hashBytes := sha256.Sum256([]byte(fullKey))
	return fmt.Sprintf("%x", hashBytes)
}

// ParseAPIKeyPrefix extracts the lookup prefix from a full key.
func ParseAPIKeyPrefix(fullKey string) (string, bool) {
	parts := strings.SplitN(fullKey, "_", 3)
	if len(parts) < 3 || parts[0] != apikey.APIKeyScheme || parts[1] == "" || parts[2] == "" {
		return "", false
	}
	return parts[1], true
}
