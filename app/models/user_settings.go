package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// UserSettings stores per-user API key material and notification preferences.
type UserSettings struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	APIKeyHash       string     `gorm:"type:varchar(64);index" json:"-"`
	APIKeyCreatedAt  *time.Time `gorm:"type:timestamp;default:null" json:"api_key_created_at,omitempty"`
	APIKeyLastUsedAt *time.Time `gorm:"type:timestamp;default:null" json:"api_key_last_used_at,omitempty"`
	APIKeyRevokedAt  *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	NotifyByEmail    bool       `gorm:"default:true" json:"notify_by_email"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// HashAPIKey returns the hex SHA-256 digest under which API keys are stored.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey creates a new plaintext API key and stores its hash on the
// settings row. The plaintext is returned once and never persisted.
func (us *UserSettings) GenerateAPIKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	key := "tfk_" + hex.EncodeToString(b)
	now := time.Now()
	us.APIKeyHash = HashAPIKey(key)
	us.APIKeyCreatedAt = &now
	us.APIKeyRevokedAt = nil
	return key, nil
}

// RevokeAPIKey marks the current API key as revoked.
func (us *UserSettings) RevokeAPIKey() {
	now := time.Now()
	us.APIKeyRevokedAt = &now
}

// GetOrCreateUserSettings fetches the settings row for a user, creating a
// default one when missing.
func GetOrCreateUserSettings(db *gorm.DB, userID uint) (*UserSettings, error) {
	var us UserSettings
	err := db.Where("user_id = ?", userID).First(&us).Error
	if err == nil {
		return &us, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	us = UserSettings{UserID: userID, NotifyByEmail: true}
	if err := db.Create(&us).Error; err != nil {
		return nil, err
	}
	return &us, nil
}
