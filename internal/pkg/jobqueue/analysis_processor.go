package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/actor"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/llm"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/payment"
)

// processAIAnalysisJob runs one LLM analysis over a finished session's items
// and stores the result on both the usage log and the session. The credit
// debit happened when the run was accepted; a permanently failed run refunds
// it.
func (q *Queue) processAIAnalysisJob(ctx context.Context, job *Job) error {
	payload, err := AIAnalysisJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid analysis payload: %w", err)
	}

	db := database.GetDB()
	var usage models.AIUsageLog
	if err := db.First(&usage, payload.UsageLogID).Error; err != nil {
		return fmt.Errorf("usage log %d not found: %w", payload.UsageLogID, err)
	}
	if usage.Status != models.AI_USAGE_STATUS_PENDING {
		// Replayed job for a settled run.
		return nil
	}

	var session models.ScrapeSession
	if err := db.First(&session, payload.SessionID).Error; err != nil {
		return fmt.Errorf("session %d not found: %w", payload.SessionID, err)
	}

	items, err := actor.DecodeItems(session.ItemsJSON)
	if err != nil {
		q.failAnalysis(db, &usage, &session, payload, fmt.Sprintf("stored items unreadable: %v", err))
		return nil
	}

	result, err := llm.NewClientFromEnv().AnalyzeItems(ctx, payload.Model, payload.Prompt, items)
	if err != nil {
		if job.RetryCount+1 >= job.MaxRetries {
			q.failAnalysis(db, &usage, &session, payload, err.Error())
			return nil
		}
		return fmt.Errorf("analysis run failed: %w", err)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}

	now := time.Now()
	usage.Status = models.AI_USAGE_STATUS_COMPLETED
	usage.PromptTokens = result.PromptTokens
	usage.CompletionTokens = result.CompletionTokens
	usage.ResultJSON = string(resultJSON)
	usage.CompletedAt = &now
	if err := db.Save(&usage).Error; err != nil {
		return fmt.Errorf("failed to save usage log %d: %w", usage.ID, err)
	}

	session.AnalysisJSON = string(resultJSON)
	if err := db.Save(&session).Error; err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.PublicID, err)
	}

	log.Infof("[JobQueue] Analysis %d for session %s completed (%d+%d tokens)",
		usage.ID, session.PublicID, result.PromptTokens, result.CompletionTokens)
	return nil
}

// failAnalysis records the terminal failure and refunds the run's debit.
func (q *Queue) failAnalysis(db *gorm.DB, usage *models.AIUsageLog, session *models.ScrapeSession, payload *AIAnalysisJobPayload, msg string) {
	now := time.Now()
	usage.Status = models.AI_USAGE_STATUS_FAILED
	usage.ErrorMessage = msg
	usage.CompletedAt = &now
	if err := db.Save(usage).Error; err != nil {
		log.Errorf("[JobQueue] Failed to mark analysis %d failed: %v", usage.ID, err)
		return
	}

	if payload.CostCredits > 0 {
		repo := payment.NewRepository(db)
		_, err := repo.AdjustCredits(usage.UserID, payload.CostCredits, models.CREDIT_TX_ADJUSTMENT,
			models.SERVICE_AI_ANALYSIS, "Analyse IA échouée, crédits restitués", session.PublicID)
		if err != nil {
			log.Errorf("[JobQueue] Analysis refund for user %d failed: %v", usage.UserID, err)
		}
	}
	log.Warnf("[JobQueue] Analysis %d for session %s failed: %s", usage.ID, session.PublicID, msg)
}
