package controllers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/app/repository"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/credits"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/jobqueue"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/llm"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/payment"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/usercontext"
)

type analyzeSessionRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// HandleAnalyzeSession queues an LLM analysis over the items of a finished,
// paid session. Credits are debited up front; the worker refunds them if the
// run ends in failure.
func HandleAnalyzeSession(c *fiber.Ctx) error {
	session, errResp := loadOwnedSession(c)
	if session == nil {
		return errResp
	}
	if !session.CanDownload() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "session_not_ready", "message": "La session doit être terminée et payée avant analyse"})
	}

	var req analyzeSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}

	userCtx := usercontext.GetUserContext(c)
	model := strings.TrimSpace(req.Model)
	if model == "" {
		user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
		if err == nil && user.PreferredAIModel != "" {
			model = user.PreferredAIModel
		} else {
			model = llm.DefaultModel
		}
	}

	cost, _, err := credits.Cost(credits.EstimateParams{
		ServiceType: models.SERVICE_AI_ANALYSIS,
		ItemCount:   session.TotalItems,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Calcul du coût impossible"})
	}

	payRepo := payment.NewRepository(database.GetDB())
	if _, err := payRepo.AdjustCredits(userCtx.UserID, -cost, models.CREDIT_TX_DEBIT,
		models.SERVICE_AI_ANALYSIS, "Réservation analyse IA", session.PublicID); err != nil {
		if err == payment.ErrInsufficientCredits {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error":    "insufficient_credits",
				"message":  "Crédits insuffisants pour lancer l'analyse",
				"required": cost,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Débit des crédits impossible"})
	}

	usage := &models.AIUsageLog{
		UserID:      userCtx.UserID,
		SessionID:   session.ID,
		Model:       model,
		Prompt:      req.Prompt,
		Status:      models.AI_USAGE_STATUS_PENDING,
		CostCredits: cost,
	}
	if err := repository.GetGlobalFactory().GetAIUsageRepository().Create(usage); err != nil {
		log.Errorf("ai usage create failed for session %s: %v", session.PublicID, err)
		payRepo.AdjustCredits(userCtx.UserID, cost, models.CREDIT_TX_ADJUSTMENT,
			models.SERVICE_AI_ANALYSIS, "Annulation réservation analyse", session.PublicID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Création de l'analyse impossible"})
	}

	payload := jobqueue.AIAnalysisJobPayload{
		UsageLogID:  usage.ID,
		SessionID:   session.ID,
		UserID:      userCtx.UserID,
		Model:       model,
		Prompt:      req.Prompt,
		CostCredits: cost,
	}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeAIAnalysis, payload.ToMap()); err != nil {
		log.Errorf("enqueue analysis failed for session %s: %v", session.PublicID, err)
		usage.Status = models.AI_USAGE_STATUS_FAILED
		usage.ErrorMessage = "mise en file impossible"
		repository.GetGlobalFactory().GetAIUsageRepository().Update(usage)
		payRepo.AdjustCredits(userCtx.UserID, cost, models.CREDIT_TX_ADJUSTMENT,
			models.SERVICE_AI_ANALYSIS, "Annulation réservation analyse", session.PublicID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Mise en file de l'analyse impossible"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"analysis_id":  usage.ID,
		"session_id":   session.PublicID,
		"model":        model,
		"status":       usage.Status,
		"cost_credits": cost,
	})
}

// HandleGetAnalysis returns the session's analysis runs and, when one has
// completed, the latest stored result.
func HandleGetAnalysis(c *fiber.Ctx) error {
	session, errResp := loadOwnedSession(c)
	if session == nil {
		return errResp
	}

	logs, err := repository.GetGlobalFactory().GetAIUsageRepository().ListBySessionID(session.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des analyses impossible"})
	}

	runs := make([]fiber.Map, 0, len(logs))
	for _, l := range logs {
		runs = append(runs, fiber.Map{
			"analysis_id":       l.ID,
			"model":             l.Model,
			"status":            l.Status,
			"prompt_tokens":     l.PromptTokens,
			"completion_tokens": l.CompletionTokens,
			"cost_credits":      l.CostCredits,
			"error_message":     l.ErrorMessage,
			"created_at":        l.CreatedAt,
			"completed_at":      formatTimePtr(l.CompletedAt),
		})
	}

	resp := fiber.Map{"session_id": session.PublicID, "runs": runs}
	if session.AnalysisJSON != "" {
		var result llm.AnalysisResult
		if err := json.Unmarshal([]byte(session.AnalysisJSON), &result); err == nil {
			resp["result"] = result
		}
	}
	return c.JSON(resp)
}
