package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/app/repository"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/jobqueue"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/payment"
)

// HandleAdminListUsers returns users with aggregated usage stats. With a
// search query the pagination parameters are ignored.
func HandleAdminListUsers(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetUserRepository()
	query := strings.TrimSpace(c.Query("search"))

	if query != "" {
		rows, err := repo.SearchWithStats(query)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Recherche impossible"})
		}
		return c.JSON(fiber.Map{"users": adminUserRows(rows), "total": len(rows)})
	}

	offset, limit, page := parsePagination(c)
	rows, err := repo.GetWithStats(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des utilisateurs impossible"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des utilisateurs impossible"})
	}
	return c.JSON(fiber.Map{"users": adminUserRows(rows), "total": total, "page": page, "limit": limit})
}

type adminUpdateUserRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

// HandleAdminUpdateUser patches role or account status of one user.
func HandleAdminUpdateUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Identifiant invalide"})
	}

	var req adminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(uint(userID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Utilisateur introuvable"})
	}

	if req.Role != nil {
		switch *req.Role {
		case models.ROLE_USER, models.ROLE_ADMIN:
			user.Role = *req.Role
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Rôle inconnu"})
		}
	}
	if req.Status != nil {
		switch *req.Status {
		case models.STATUS_ACTIVE, models.STATUS_INACTIVE, models.STATUS_DISABLED:
			user.Status = *req.Status
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Statut inconnu"})
		}
	}

	if err := repo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Mise à jour impossible"})
	}
	return c.JSON(fiber.Map{"id": user.ID, "email": user.Email, "role": user.Role, "status": user.Status})
}

type adminAdjustCreditsRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// HandleAdminAdjustCredits applies a manual ledger adjustment (support
// gestures, refunds outside the normal flows). Amount is signed.
func HandleAdminAdjustCredits(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Identifiant invalide"})
	}

	var req adminAdjustCreditsRequest
	if err := c.BodyParser(&req); err != nil || req.Amount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Montant requis et non nul"})
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Ajustement manuel"
	}

	entry, err := payment.NewRepository(database.GetDB()).AdjustCredits(uint(userID), req.Amount,
		models.CREDIT_TX_ADJUSTMENT, "admin_adjustment", description, "")
	if err != nil {
		if err == payment.ErrInsufficientCredits {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "insufficient_credits", "message": "L'ajustement rendrait le solde négatif"})
		}
		log.Errorf("admin credit adjustment failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Ajustement impossible"})
	}
	return c.JSON(fiber.Map{"transaction": entry})
}

// HandleAdminListSessions returns sessions across all users, optionally
// filtered by a search query on public id or target URL.
func HandleAdminListSessions(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetSessionRepository()
	offset, limit, page := parsePagination(c)

	var (
		sessions []models.ScrapeSession
		err      error
	)
	if query := strings.TrimSpace(c.Query("search")); query != "" {
		sessions, err = repo.Search(query, offset, limit)
	} else {
		sessions, err = repo.List(offset, limit)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des sessions impossible"})
	}

	out := make([]fiber.Map, 0, len(sessions))
	for i := range sessions {
		row := sessionSummary(&sessions[i])
		row["user_id"] = sessions[i].UserID
		out = append(out, row)
	}

	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des sessions impossible"})
	}
	return c.JSON(fiber.Map{"sessions": out, "total": total, "page": page, "limit": limit})
}

// HandleAdminStats returns platform-wide counters: users, sessions per
// status and the live job queue gauges.
func HandleAdminStats(c *fiber.Ctx) error {
	userRepo := repository.GetGlobalFactory().GetUserRepository()
	sessionRepo := repository.GetGlobalFactory().GetSessionRepository()

	userCount, err := userRepo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Statistiques indisponibles"})
	}

	statuses := []string{
		models.SESSION_STATUS_PENDING,
		models.SESSION_STATUS_RUNNING,
		models.SESSION_STATUS_FINISHED,
		models.SESSION_STATUS_FAILED,
	}
	sessionsByStatus := fiber.Map{}
	for _, status := range statuses {
		count, err := sessionRepo.CountByStatus(status)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Statistiques indisponibles"})
		}
		sessionsByStatus[status] = count
	}

	resp := fiber.Map{"users": userCount, "sessions": sessionsByStatus}
	if jobStats, err := jobqueue.GetManager().GetQueue().GetJobStats(c.Context()); err == nil {
		resp["jobs"] = jobStats
	}
	return c.JSON(resp)
}

// HandleAdminReseedPacks resets the pack catalog to the built-in defaults.
func HandleAdminReseedPacks(c *fiber.Ctx) error {
	if err := repository.GetGlobalFactory().GetPackRepository().ReseedDefaults(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Réinitialisation des packs impossible"})
	}
	packs, err := repository.GetGlobalFactory().GetPackRepository().GetAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des packs impossible"})
	}
	return c.JSON(fiber.Map{"reseeded": true, "packs": packs})
}

func adminUserRows(rows []repository.UserWithStats) []fiber.Map {
	out := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		out = append(out, fiber.Map{
			"id":             row.User.ID,
			"name":           row.User.Name,
			"email":          row.User.Email,
			"role":           row.User.Role,
			"status":         row.User.Status,
			"credit_balance": row.CreditBalance,
			"session_count":  row.SessionCount,
			"paid_sessions":  row.PaidSessions,
			"credits_spent":  row.CreditsSpent,
			"last_login_at":  formatTimePtr(row.User.LastLoginAt),
			"created_at":     row.User.CreatedAt,
		})
	}
	return out
}
