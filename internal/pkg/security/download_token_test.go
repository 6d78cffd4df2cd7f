package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDownloadTokenRoundTrip(t *testing.T) {
	token, err := GenerateDownloadToken("sess_abc123", 42, time.Hour, "unit-test-secret")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := VerifyDownloadToken(token, "sess_abc123", "unit-test-secret")
	assert.NoError(t, err)
	assert.Equal(t, "sess_abc123", claims.SessionPublicID)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestDownloadTokenRejectsWrongSession(t *testing.T) {
	token, err := GenerateDownloadToken("sess_abc123", 42, time.Hour, "unit-test-secret")
	assert.NoError(t, err)

	_, err = VerifyDownloadToken(token, "sess_other", "unit-test-secret")
	assert.ErrorIs(t, err, ErrInvalidDownloadToken)
}

func TestDownloadTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateDownloadToken("sess_abc123", 42, time.Hour, "unit-test-secret")
	assert.NoError(t, err)

	_, err = VerifyDownloadToken(token, "sess_abc123", "another-secret")
	assert.ErrorIs(t, err, ErrInvalidDownloadToken)
}

func TestDownloadTokenRejectsExpired(t *testing.T) {
	token, err := GenerateDownloadToken("sess_abc123", 42, -time.Minute, "unit-test-secret")
	assert.NoError(t, err)

	_, err = VerifyDownloadToken(token, "sess_abc123", "unit-test-secret")
	assert.ErrorIs(t, err, ErrInvalidDownloadToken)
}

func TestDownloadTokenRequiresSecret(t *testing.T) {
	_, err := GenerateDownloadToken("sess_abc123", 42, time.Hour, "")
	assert.Error(t, err)

	_, err = VerifyDownloadToken("whatever", "sess_abc123", "")
	assert.Error(t, err)
}

func TestDownloadTokenRejectsGarbage(t *testing.T) {
	_, err := VerifyDownloadToken("not-a-jwt", "sess_abc123", "unit-test-secret")
	assert.ErrorIs(t, err, ErrInvalidDownloadToken)
}
