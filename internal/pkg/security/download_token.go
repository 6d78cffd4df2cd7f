package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DownloadClaims bind a download token to one paid session.
type DownloadClaims struct {
	SessionPublicID string `json:"sid"`
	UserID          uint   `json:"uid"`
	jwt.RegisteredClaims
}

var ErrInvalidDownloadToken = errors.New("invalid download token")

// GenerateDownloadToken issues a signed token granting export access to one
// session for the given TTL. Tokens are handed out at payment completion.
func GenerateDownloadToken(sessionPublicID string, userID uint, ttl time.Duration, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required for token generation")
	}
	now := time.Now()
	claims := DownloadClaims{
		SessionPublicID: sessionPublicID,
		UserID:          userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   sessionPublicID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyDownloadToken validates signature and expiry and checks the token was
// issued for the given session.
func VerifyDownloadToken(tokenString, sessionPublicID, secret string) (*DownloadClaims, error) {
	if secret == "" {
		return nil, errors.New("secret is required for token verification")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &DownloadClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidDownloadToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidDownloadToken
	}
	claims, ok := parsed.Claims.(*DownloadClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidDownloadToken
	}
	if claims.SessionPublicID != sessionPublicID {
		return nil, ErrInvalidDownloadToken
	}
	return claims, nil
}
