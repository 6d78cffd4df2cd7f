package models

import "time"

const (
	AI_USAGE_STATUS_PENDING   = "pending"
	AI_USAGE_STATUS_COMPLETED = "completed"
	AI_USAGE_STATUS_FAILED    = "failed"
)

// AIUsageLog records one LLM analysis run: token usage, credit cost and the
// stored result. One session can accumulate several analysis runs.
type AIUsageLog struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	SessionID        uint       `gorm:"not null;index" json:"session_id"`
	Model            string     `gorm:"type:varchar(100);not null" json:"model"`
	Prompt           string     `gorm:"type:text" json:"prompt"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PromptTokens     int        `gorm:"not null;default:0" json:"prompt_tokens"`
	CompletionTokens int        `gorm:"not null;default:0" json:"completion_tokens"`
	CostCredits      int64      `gorm:"not null;default:0" json:"cost_credits"`
	ResultJSON       string     `gorm:"type:text" json:"-"`
	ErrorMessage     string     `gorm:"type:text" json:"error_message,omitempty"`
	CompletedAt      *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
