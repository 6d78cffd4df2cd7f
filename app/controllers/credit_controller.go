package controllers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/repository"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/credits"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/usercontext"
)

// HandleCreditBalance returns the user's current balance.
func HandleCreditBalance(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	balance, err := repository.GetGlobalFactory().GetCreditRepository().GetBalance(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Solde indisponible"})
	}
	return c.JSON(fiber.Map{"balance": balance})
}

// HandleCreditHistory returns a page of the user's ledger, newest first.
func HandleCreditHistory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit, page := parsePagination(c)

	repo := repository.GetGlobalFactory().GetCreditRepository()
	history, err := repo.History(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Historique indisponible"})
	}
	total, err := repo.CountByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Historique indisponible"})
	}

	return c.JSON(fiber.Map{"transactions": history, "total": total, "page": page, "limit": limit})
}

// HandleCreditEstimate prices an operation against the user's balance
// without debiting anything.
func HandleCreditEstimate(c *fiber.Ctx) error {
	var params credits.EstimateParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}
	if err := validator.New().Struct(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	userCtx := usercontext.GetUserContext(c)
	balance, err := repository.GetGlobalFactory().GetCreditRepository().GetBalance(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Solde indisponible"})
	}

	estimate, err := credits.EstimateFor(params, balance)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_service_type", "message": err.Error()})
	}
	return c.JSON(estimate)
}
