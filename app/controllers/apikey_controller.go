package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/usercontext"
)

// HandleGetAPIKey returns the API key metadata of the current user. The key
// itself is only ever shown at generation time.
func HandleGetAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	settings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Paramètres indisponibles"})
	}

	return c.JSON(fiber.Map{
		"has_key":      settings.APIKeyHash != "" && settings.APIKeyRevokedAt == nil,
		"created_at":   formatTimePtr(settings.APIKeyCreatedAt),
		"last_used_at": formatTimePtr(settings.APIKeyLastUsedAt),
	})
}

// HandleGenerateAPIKey issues a fresh API key, replacing any existing one.
// The plaintext is returned exactly once.
func HandleGenerateAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	db := database.GetDB()

	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Paramètres indisponibles"})
	}

	key, err := settings.GenerateAPIKey()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Génération de la clé impossible"})
	}
	if err := db.Save(settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Enregistrement de la clé impossible"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"api_key":    key,
		"created_at": formatTimePtr(settings.APIKeyCreatedAt),
		"message":    "Conservez cette clé, elle ne sera plus affichée",
	})
}

// HandleRevokeAPIKey invalidates the current API key.
func HandleRevokeAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	db := database.GetDB()

	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Paramètres indisponibles"})
	}
	if settings.APIKeyHash == "" || settings.APIKeyRevokedAt != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Aucune clé active"})
	}

	settings.RevokeAPIKey()
	if err := db.Save(settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Révocation impossible"})
	}
	return c.JSON(fiber.Map{"revoked": true})
}
