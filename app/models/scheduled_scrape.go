package models

import "time"

const (
	SCHEDULE_FREQ_HOURLY = "hourly"
	SCHEDULE_FREQ_DAILY  = "daily"
	SCHEDULE_FREQ_WEEKLY = "weekly"
)

const (
	EXECUTION_STATUS_PENDING   = "pending"
	EXECUTION_STATUS_RUNNING   = "running"
	EXECUTION_STATUS_COMPLETED = "completed"
	EXECUTION_STATUS_FAILED    = "failed"
)

const (
	CHANGE_NEW_ITEM     = "new_item"
	CHANGE_PRICE_CHANGE = "price_change"
	CHANGE_REMOVED      = "removed"
)

// ScheduledScrape is a recurring extraction config owned by a user.
// The jobqueue manager ticks over due active rows and spawns executions.
type ScheduledScrape struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Name        string     `gorm:"type:varchar(150);not null" json:"name"`
	TargetURL   string     `gorm:"type:text;not null" json:"target_url"`
	ServiceType string     `gorm:"type:varchar(50);not null;default:'marketplace'" json:"service_type"`
	Frequency   string     `gorm:"type:varchar(20);not null;default:'daily'" json:"frequency"`
	IsActive    bool       `gorm:"default:true;index" json:"is_active"`
	NextRunAt   *time.Time `gorm:"type:timestamp;index" json:"next_run_at,omitempty"`
	LastRunAt   *time.Time `gorm:"type:timestamp;default:null" json:"last_run_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Executions []ScrapeExecution `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Interval returns the wall-clock spacing between runs for the config.
func (s *ScheduledScrape) Interval() time.Duration {
	switch s.Frequency {
	case SCHEDULE_FREQ_HOURLY:
		return time.Hour
	case SCHEDULE_FREQ_WEEKLY:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// IsDue reports whether the config should run at the given instant.
func (s *ScheduledScrape) IsDue(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	return s.NextRunAt == nil || !now.Before(*s.NextRunAt)
}

// ScrapeExecution is one run of a scheduled scrape.
type ScrapeExecution struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ScheduledScrapeID uint       `gorm:"not null;index" json:"scheduled_scrape_id"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ItemsJSON         string     `gorm:"type:text" json:"-"`
	ItemCount         int        `gorm:"not null;default:0" json:"item_count"`
	ErrorMessage      string     `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt         *time.Time `gorm:"type:timestamp;default:null" json:"started_at,omitempty"`
	FinishedAt        *time.Time `gorm:"type:timestamp;default:null" json:"finished_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`

	Changes []DetectedChange `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// DetectedChange is one diff entry between two consecutive executions.
type DetectedChange struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ScrapeExecutionID uint      `gorm:"not null;index" json:"scrape_execution_id"`
	ChangeType        string    `gorm:"type:varchar(20);not null" json:"change_type"`
	ItemKey           string    `gorm:"type:varchar(255);not null" json:"item_key"`
	OldValue          string    `gorm:"type:text" json:"old_value,omitempty"`
	NewValue          string    `gorm:"type:text" json:"new_value,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`

	Notifications []ScrapeNotification `gorm:"foreignKey:DetectedChangeID;constraint:OnDelete:CASCADE" json:"-"`
}

// ScrapeNotification records a change notification sent (or queued) to the
// owning user.
type ScrapeNotification struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	DetectedChangeID uint       `gorm:"not null;index" json:"detected_change_id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	Channel          string     `gorm:"type:varchar(20);not null;default:'email'" json:"channel"`
	SentAt           *time.Time `gorm:"type:timestamp;default:null" json:"sent_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
