package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/repository"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/usercontext"
)

// HandleListTrackings returns the user's tracked Facebook pages with their
// incremental scrape state.
func HandleListTrackings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	trackings, err := repository.GetGlobalFactory().GetTrackingRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des suivis impossible"})
	}
	return c.JSON(fiber.Map{"trackings": trackings})
}

// HandleDeleteTracking drops a tracked page and its dedup history. The next
// scrape of that page starts from scratch and bills every post again.
func HandleDeleteTracking(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Identifiant invalide"})
	}

	userCtx := usercontext.GetUserContext(c)
	repo := repository.GetGlobalFactory().GetTrackingRepository()
	trackings, err := repo.GetByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des suivis impossible"})
	}

	for _, t := range trackings {
		if t.ID == uint(id) {
			if err := repo.Delete(t.ID); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Suppression du suivi impossible"})
			}
			return c.JSON(fiber.Map{"deleted": true})
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Suivi introuvable"})
}
