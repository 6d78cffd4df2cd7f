package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/app/repository"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/usercontext"
)

const recentExecutionCount = 10

type createScheduledScrapeRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=150"`
	TargetURL   string `json:"target_url" validate:"required,url"`
	ServiceType string `json:"service_type" validate:"required"`
	Frequency   string `json:"frequency" validate:"required,oneof=hourly daily weekly"`
}

type updateScheduledScrapeRequest struct {
	Name      *string `json:"name"`
	Frequency *string `json:"frequency"`
	IsActive  *bool   `json:"is_active"`
}

// HandleCreateScheduledScrape registers a recurring extraction. The first run
// is scheduled one interval from now.
func HandleCreateScheduledScrape(c *fiber.Ctx) error {
	var req createScheduledScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if !models.IsValidServiceType(req.ServiceType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_service_type", "message": "Type de service inconnu"})
	}

	userCtx := usercontext.GetUserContext(c)
	config := &models.ScheduledScrape{
		UserID:      userCtx.UserID,
		Name:        req.Name,
		TargetURL:   req.TargetURL,
		ServiceType: req.ServiceType,
		Frequency:   req.Frequency,
		IsActive:    true,
	}
	firstRun := time.Now().Add(config.Interval())
	config.NextRunAt = &firstRun

	if err := repository.GetGlobalFactory().GetScheduledScrapeRepository().Create(config); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Création de la planification impossible"})
	}
	return c.Status(fiber.StatusCreated).JSON(scheduledScrapeSummary(config))
}

// HandleListScheduledScrapes returns all recurring extractions of the user.
func HandleListScheduledScrapes(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	configs, err := repository.GetGlobalFactory().GetScheduledScrapeRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des planifications impossible"})
	}

	out := make([]fiber.Map, 0, len(configs))
	for i := range configs {
		out = append(out, scheduledScrapeSummary(&configs[i]))
	}
	return c.JSON(fiber.Map{"scheduled_scrapes": out})
}

// HandleGetScheduledScrape returns one config with its recent executions and
// the changes detected by each.
func HandleGetScheduledScrape(c *fiber.Ctx) error {
	config, errResp := loadOwnedScheduledScrape(c)
	if config == nil {
		return errResp
	}

	repo := repository.GetGlobalFactory().GetScheduledScrapeRepository()
	execs, err := repo.Executions(config.ID, recentExecutionCount)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des exécutions impossible"})
	}

	executions := make([]fiber.Map, 0, len(execs))
	for _, exec := range execs {
		changes, err := repo.ChangesForExecution(exec.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement des changements impossible"})
		}
		executions = append(executions, fiber.Map{
			"execution_id":  exec.ID,
			"status":        exec.Status,
			"item_count":    exec.ItemCount,
			"error_message": exec.ErrorMessage,
			"started_at":    formatTimePtr(exec.StartedAt),
			"finished_at":   formatTimePtr(exec.FinishedAt),
			"created_at":    exec.CreatedAt,
			"changes":       changes,
		})
	}

	resp := scheduledScrapeSummary(config)
	resp["executions"] = executions
	return c.JSON(resp)
}

// HandleUpdateScheduledScrape patches name, frequency or active state.
// A frequency change reschedules the next run from now.
func HandleUpdateScheduledScrape(c *fiber.Ctx) error {
	config, errResp := loadOwnedScheduledScrape(c)
	if config == nil {
		return errResp
	}

	var req updateScheduledScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}

	if req.Name != nil {
		if len(*req.Name) < 2 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Nom trop court"})
		}
		config.Name = *req.Name
	}
	if req.Frequency != nil {
		switch *req.Frequency {
		case models.SCHEDULE_FREQ_HOURLY, models.SCHEDULE_FREQ_DAILY, models.SCHEDULE_FREQ_WEEKLY:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Fréquence inconnue"})
		}
		config.Frequency = *req.Frequency
		next := time.Now().Add(config.Interval())
		config.NextRunAt = &next
	}
	if req.IsActive != nil {
		config.IsActive = *req.IsActive
		if *req.IsActive && config.NextRunAt == nil {
			next := time.Now().Add(config.Interval())
			config.NextRunAt = &next
		}
	}

	if err := repository.GetGlobalFactory().GetScheduledScrapeRepository().Update(config); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Mise à jour de la planification impossible"})
	}
	return c.JSON(scheduledScrapeSummary(config))
}

// HandleDeleteScheduledScrape removes a config and its execution history.
func HandleDeleteScheduledScrape(c *fiber.Ctx) error {
	config, errResp := loadOwnedScheduledScrape(c)
	if config == nil {
		return errResp
	}
	if err := repository.GetGlobalFactory().GetScheduledScrapeRepository().Delete(config.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Suppression de la planification impossible"})
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func loadOwnedScheduledScrape(c *fiber.Ctx) (*models.ScheduledScrape, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Identifiant invalide"})
	}

	userCtx := usercontext.GetUserContext(c)
	config, err := repository.GetGlobalFactory().GetScheduledScrapeRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Planification introuvable"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement de la planification impossible"})
	}
	if config.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Planification introuvable"})
	}
	return config, nil
}

func scheduledScrapeSummary(s *models.ScheduledScrape) fiber.Map {
	return fiber.Map{
		"id":           s.ID,
		"name":         s.Name,
		"target_url":   s.TargetURL,
		"service_type": s.ServiceType,
		"frequency":    s.Frequency,
		"is_active":    s.IsActive,
		"next_run_at":  formatTimePtr(s.NextRunAt),
		"last_run_at":  formatTimePtr(s.LastRunAt),
		"created_at":   s.CreatedAt,
	}
}
