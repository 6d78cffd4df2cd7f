package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAPIKey(t *testing.T) {
	us := &UserSettings{UserID: 1}

	key, err := us.GenerateAPIKey()
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "tfk_"))
	assert.Equal(t, HashAPIKey(key), us.APIKeyHash)
	assert.NotNil(t, us.APIKeyCreatedAt)
	assert.Nil(t, us.APIKeyRevokedAt)

	// plaintext never stored
	assert.NotContains(t, us.APIKeyHash, key)
}

func TestGenerateAPIKeyReplacesRevoked(t *testing.T) {
	us := &UserSettings{UserID: 1}
	first, err := us.GenerateAPIKey()
	assert.NoError(t, err)
	us.RevokeAPIKey()
	assert.NotNil(t, us.APIKeyRevokedAt)

	second, err := us.GenerateAPIKey()
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Nil(t, us.APIKeyRevokedAt)
	assert.Equal(t, HashAPIKey(second), us.APIKeyHash)
}

func TestHashAPIKeyDeterministic(t *testing.T) {
	assert.Equal(t, HashAPIKey("abc"), HashAPIKey("abc"))
	assert.NotEqual(t, HashAPIKey("abc"), HashAPIKey("abd"))
	assert.Len(t, HashAPIKey("abc"), 64)
}
