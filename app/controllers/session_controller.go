package controllers

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/app/repository"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/actor"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/credits"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/exporter"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/jobqueue"
	metrics "github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/metrics/counter"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/payment"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/security"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/usercontext"
)

type createSessionRequest struct {
	ServiceType string `json:"service_type" validate:"required"`
	TargetURL   string `json:"target_url" validate:"required,url"`
	MaxItems    int    `json:"max_items" validate:"min=0"`
}

// HandleCreateSession accepts a new extraction, debits the estimated cost
// and enqueues the run.
func HandleCreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if !models.IsValidServiceType(req.ServiceType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_service_type", "message": "Type de service inconnu"})
	}

	maxItems := req.MaxItems
	if maxItems <= 0 {
		maxItems = env.GetEnvInt("DEFAULT_MAX_ITEMS", 100)
	}
	if ceiling := env.GetEnvInt("MAX_ITEMS_LIMIT", 500); maxItems > ceiling {
		maxItems = ceiling
	}

	userCtx := usercontext.GetUserContext(c)
	cost, breakdown, err := credits.Cost(credits.EstimateParams{ServiceType: req.ServiceType, ItemCount: maxItems})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_service_type", "message": err.Error()})
	}

	session := &models.ScrapeSession{
		PublicID:    models.NewSessionPublicID(),
		UserID:      userCtx.UserID,
		ServiceType: req.ServiceType,
		TargetURL:   strings.TrimSpace(req.TargetURL),
		Status:      models.SESSION_STATUS_PENDING,
		IsTrial:     userCtx.IsTrial,
	}

	// Reserve the estimated cost before any work happens. The processor
	// refunds the difference once the delivered count is known.
	payRepo := payment.NewRepository(database.GetDB())
	_, err = payRepo.AdjustCredits(userCtx.UserID, -cost, models.CREDIT_TX_DEBIT, req.ServiceType,
		"Réservation extraction", session.PublicID)
	if err != nil {
		if errors.Is(err, payment.ErrInsufficientCredits) {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error":    "insufficient_credits",
				"message":  "Crédits insuffisants pour cette extraction",
				"required": cost,
			})
		}
		log.Errorf("credit reservation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Réservation des crédits impossible"})
	}

	sessRepo := repository.GetGlobalFactory().GetSessionRepository()
	if err := sessRepo.Create(session); err != nil {
		log.Errorf("session creation failed: %v", err)
		// Give the reservation back, the session never existed.
		_, _ = payRepo.AdjustCredits(userCtx.UserID, cost, models.CREDIT_TX_ADJUSTMENT, req.ServiceType,
			"Annulation réservation", session.PublicID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Création de la session impossible"})
	}

	payload := jobqueue.ScrapeRunJobPayload{
		SessionID:       session.ID,
		SessionPublicID: session.PublicID,
		MaxItems:        maxItems,
		EstimatedCost:   cost,
	}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeScrapeRun, payload.ToMap()); err != nil {
		log.Errorf("enqueue failed for session %s: %v", session.PublicID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Mise en file de l'extraction impossible"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id":     session.PublicID,
		"status":         session.Status,
		"service_type":   session.ServiceType,
		"estimated_cost": cost,
		"breakdown":      breakdown,
	})
}

// HandleListSessions returns a page of the user's sessions.
func HandleListSessions(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit, page := parsePagination(c)

	repo := repository.GetGlobalFactory().GetSessionRepository()
	sessions, err := repo.GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des sessions impossible"})
	}
	total, err := repo.CountByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des sessions impossible"})
	}

	out := make([]fiber.Map, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessionSummary(&sessions[i]))
	}
	return c.JSON(fiber.Map{"sessions": out, "total": total, "page": page, "limit": limit})
}

// HandleGetSession returns one session with its preview when unpaid and the
// full dataset gate state.
func HandleGetSession(c *fiber.Ctx) error {
	session, errResp := loadOwnedSession(c)
	if session == nil {
		return errResp
	}

	resp := sessionSummary(session)
	resp["error_message"] = session.ErrorMessage
	resp["analysis_available"] = session.AnalysisJSON != ""

	if session.Status == models.SESSION_STATUS_FINISHED {
		preview, err := actor.DecodeItems(session.PreviewJSON)
		if err == nil {
			resp["preview"] = preview
		}
	}
	return c.JSON(resp)
}

// HandleSessionItems returns the full dataset with filtering and sorting.
// Only paid, finished sessions expose it.
func HandleSessionItems(c *fiber.Ctx) error {
	session, errResp := loadOwnedSession(c)
	if session == nil {
		return errResp
	}
	if !session.CanDownload() {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "payment_required", "message": "Session non payée ou non terminée"})
	}

	items, err := actor.DecodeItems(session.ItemsJSON)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Données illisibles"})
	}

	items = filterItems(c, items)
	sortItems(c, items)

	offset, limit, page := parsePagination(c)
	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return c.JSON(fiber.Map{
		"items": items[offset:end],
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// HandleSessionDownload streams the dataset as CSV or XLSX. The expiring
// download token issued at payment time gates the endpoint on top of the
// paid state.
func HandleSessionDownload(c *fiber.Ctx) error {
	session, errResp := loadOwnedSession(c)
	if session == nil {
		return errResp
	}
	if !session.CanDownload() {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "payment_required", "message": "Session non payée ou non terminée"})
	}

	token := strings.TrimSpace(c.Query("token"))
	secret := env.GetEnv("DOWNLOAD_TOKEN_SECRET", "")
	if _, err := security.VerifyDownloadToken(token, session.PublicID, secret); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid_token", "message": "Jeton de téléchargement invalide ou expiré"})
	}

	items, err := actor.DecodeItems(session.ItemsJSON)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Données illisibles"})
	}

	format := c.Query("format", exporter.FormatExcel)
	result, err := exporter.Export(format, "export_"+session.PublicID, items)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := metrics.AddSessionDownload(session.ID); err != nil {
		log.Errorf("download counter for session %s failed: %v", session.PublicID, err)
	}
	// Detached from the request context: the fiber ctx is recycled after
	// the handler returns.
	go exporter.ArchiveExport(context.Background(), session.PublicID, result)

	c.Set(fiber.HeaderContentType, result.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+result.FileName+`"`)
	return c.Send(result.Data)
}

// loadOwnedSession resolves :id to a session the requester may access.
func loadOwnedSession(c *fiber.Ctx) (*models.ScrapeSession, error) {
	publicID := c.Params("id")
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetSessionRepository()
	session, err := repo.GetByPublicID(publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Session introuvable"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement de la session impossible"})
	}
	if session.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Session introuvable"})
	}
	return session, nil
}

func sessionSummary(s *models.ScrapeSession) fiber.Map {
	return fiber.Map{
		"session_id":     s.PublicID,
		"service_type":   s.ServiceType,
		"target_url":     s.TargetURL,
		"status":         s.Status,
		"is_paid":        s.IsPaid,
		"pack_id":        s.PackID,
		"total_items":    s.TotalItems,
		"download_count": s.DownloadCount,
		"created_at":     s.CreatedAt,
		"started_at":     formatTimePtr(s.StartedAt),
		"finished_at":    formatTimePtr(s.FinishedAt),
	}
}

func filterItems(c *fiber.Ctx, items []actor.ScrapedItem) []actor.ScrapedItem {
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	location := strings.ToLower(strings.TrimSpace(c.Query("location")))
	itemType := strings.TrimSpace(c.Query("itemType"))
	minPrice, hasMin := parseFloatQuery(c, "minPrice")
	maxPrice, hasMax := parseFloatQuery(c, "maxPrice")
	favOnly := c.Query("isFavorite") == "true"

	out := items[:0]
	for _, it := range items {
		if search != "" &&
			!strings.Contains(strings.ToLower(it.Title), search) &&
			!strings.Contains(strings.ToLower(it.Description), search) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(it.Location), location) {
			continue
		}
		if itemType != "" && it.ItemType != itemType {
			continue
		}
		if hasMin && it.Price < minPrice {
			continue
		}
		if hasMax && it.Price > maxPrice {
			continue
		}
		if favOnly && !it.IsFavorite {
			continue
		}
		out = append(out, it)
	}
	return out
}

func sortItems(c *fiber.Ctx, items []actor.ScrapedItem) {
	sortBy := c.Query("sortBy")
	desc := c.Query("sortOrder", "asc") == "desc"

	var less func(a, b actor.ScrapedItem) bool
	switch sortBy {
	case "price":
		less = func(a, b actor.ScrapedItem) bool { return a.Price < b.Price }
	case "title":
		less = func(a, b actor.ScrapedItem) bool { return a.Title < b.Title }
	case "date":
		less = func(a, b actor.ScrapedItem) bool { return a.PostedAt.Before(b.PostedAt) }
	default:
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func parseFloatQuery(c *fiber.Ctx, key string) (float64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
