package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SESSION_STATUS_PENDING  = "pending"
	SESSION_STATUS_RUNNING  = "running"
	SESSION_STATUS_FINISHED = "finished"
	SESSION_STATUS_FAILED   = "failed"
)

const (
	SERVICE_MARKETPLACE       = "marketplace"
	SERVICE_FACEBOOK_POSTS    = "facebook_posts"
	SERVICE_FACEBOOK_COMMENTS = "facebook_comments"
	SERVICE_AI_ANALYSIS       = "ai_analysis"
)

// ScrapeSession represents one user-initiated extraction job together with
// its payment and download state. Rows are never hard-deleted; the status
// column carries the lifecycle.
type ScrapeSession struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	PublicID        string         `gorm:"type:varchar(46);uniqueIndex;not null" json:"public_id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	ServiceType     string         `gorm:"type:varchar(50);not null;default:'marketplace'" json:"service_type"`
	TargetURL       string         `gorm:"type:text;not null" json:"target_url"`
	Status          string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ErrorMessage    string         `gorm:"type:text" json:"error_message,omitempty"`
	ActorRunID      string         `gorm:"type:varchar(100);index" json:"actor_run_id,omitempty"`
	DatasetID       string         `gorm:"type:varchar(100)" json:"dataset_id,omitempty"`
	PackID          string         `gorm:"type:varchar(50);index" json:"pack_id,omitempty"`
	IsPaid          bool           `gorm:"not null;default:false;index" json:"is_paid"`
	IsTrial         bool           `gorm:"default:false" json:"is_trial"`
	PreviewJSON     string         `gorm:"type:text" json:"-"`
	ItemsJSON       string         `gorm:"type:text" json:"-"`
	TotalItems      int            `gorm:"not null;default:0" json:"total_items"`
	DownloadToken   string         `gorm:"type:text" json:"-"`
	DownloadCount   int64          `gorm:"not null;default:0" json:"download_count"`
	PaymentIntentID string         `gorm:"type:varchar(100)" json:"-"`
	AnalysisJSON    string         `gorm:"type:text" json:"-"`
	StartedAt       *time.Time     `gorm:"type:timestamp;default:null" json:"started_at,omitempty"`
	FinishedAt      *time.Time     `gorm:"type:timestamp;default:null" json:"finished_at,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewSessionPublicID returns a fresh external session identifier.
func NewSessionPublicID() string {
	return "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsValidServiceType reports whether the given service type is scrapeable.
// SERVICE_AI_ANALYSIS is billable but never a session service type.
func IsValidServiceType(st string) bool {
	switch st {
	case SERVICE_MARKETPLACE, SERVICE_FACEBOOK_POSTS, SERVICE_FACEBOOK_COMMENTS:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the session reached a final scrape state.
func (s *ScrapeSession) IsTerminal() bool {
	return s.Status == SESSION_STATUS_FINISHED || s.Status == SESSION_STATUS_FAILED
}

// CanDownload reports whether the export endpoints may serve this session.
// The download token is checked separately against its signature and expiry.
func (s *ScrapeSession) CanDownload() bool {
	return s.Status == SESSION_STATUS_FINISHED && s.IsPaid
}
