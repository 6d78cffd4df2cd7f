package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeScrapeRun       JobType = "scrape_run"
	JobTypeAIAnalysis      JobType = "ai_analysis"
	JobTypeScheduledScrape JobType = "scheduled_scrape_run"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// ScrapeRunJobPayload contains the payload for extraction runs.
// EstimatedCost is the credit amount already debited at session creation;
// the processor refunds the difference once the real item count is known.
type ScrapeRunJobPayload struct {
	SessionID       uint   `json:"session_id"`
	SessionPublicID string `json:"session_public_id"`
	MaxItems        int    `json:"max_items"`
	EstimatedCost   int64  `json:"estimated_cost"`
}

// ToMap converts the payload to a map for storage
func (p ScrapeRunJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"session_id":        p.SessionID,
		"session_public_id": p.SessionPublicID,
		"max_items":         p.MaxItems,
		"estimated_cost":    p.EstimatedCost,
	}
}

// ScrapeRunJobPayloadFromMap creates a payload from a map
func ScrapeRunJobPayloadFromMap(data map[string]interface{}) (*ScrapeRunJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload ScrapeRunJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// AIAnalysisJobPayload contains the payload for LLM analysis runs.
// CostCredits was debited when the run was accepted; failed runs refund it.
type AIAnalysisJobPayload struct {
	UsageLogID  uint   `json:"usage_log_id"`
	SessionID   uint   `json:"session_id"`
	UserID      uint   `json:"user_id"`
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	CostCredits int64  `json:"cost_credits"`
}

// ToMap converts the payload to a map for storage
func (p AIAnalysisJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"usage_log_id": p.UsageLogID,
		"session_id":   p.SessionID,
		"user_id":      p.UserID,
		"model":        p.Model,
		"prompt":       p.Prompt,
		"cost_credits": p.CostCredits,
	}
}

// AIAnalysisJobPayloadFromMap creates a payload from a map
func AIAnalysisJobPayloadFromMap(data map[string]interface{}) (*AIAnalysisJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload AIAnalysisJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// ScheduledScrapeJobPayload contains the payload for one scheduled run.
type ScheduledScrapeJobPayload struct {
	ScheduledScrapeID uint `json:"scheduled_scrape_id"`
	ExecutionID       uint `json:"execution_id"`
}

// ToMap converts the payload to a map for storage
func (p ScheduledScrapeJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"scheduled_scrape_id": p.ScheduledScrapeID,
		"execution_id":        p.ExecutionID,
	}
}

// ScheduledScrapeJobPayloadFromMap creates a payload from a map
func ScheduledScrapeJobPayloadFromMap(data map[string]interface{}) (*ScheduledScrapeJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload ScheduledScrapeJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
