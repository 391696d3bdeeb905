package util

import (
	"strings"
	"testing"

	"github.com/makkenzo/cnc-license-admin/internal/domain/apikey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateAPIKey(t *testing.T) {
	fullKey, prefix, keyHash, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.Len(t, prefix, apikey.APIKeyPrefixLength)
	assert.True(t, strings.HasPrefix(fullKey, "cnc_"+prefix+"_"))
	assert.Len(t, fullKey, len("cnc_")+apikey.APIKeyPrefixLength+1+apikey.APIKeySecretLength)
	assert.Equal(t, HashAPIKey(fullKey), keyHash)
	assert.Len(t, keyHash, 64)

	parsed, ok := ParseAPIKeyPrefix(fullKey)
	require.True(t, ok)
	assert.Equal(t, prefix, parsed)

	other, _, _, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, fullKey, other)
}

func TestParseAPIKeyPrefix(t *testing.T) {
	tests := []struct {
		key    string
		prefix string
		ok     bool
	}{
		{key: "cnc_abcd1234_secret", prefix: "abcd1234", ok: true},
		{key: "lm_abcd1234_secret"},
		{key: "cnc_abcd1234"},
		{key: "cnc__secret"},
		{key: "cnc_abcd1234_"},
		{key: ""},
	}
	for _, tt := range tests {
		prefix, ok := ParseAPIKeyPrefix(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.prefix, prefix, tt.key)
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
	require.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter3")))
}
