package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/app/repository"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/hcaptcha"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/mail"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/session"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/usercontext"
)

type registerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	BusinessSector string `json:"business_sector"`
	CompanySize    string `json:"company_size"`
	CaptchaToken   string `json:"captcha_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and sends the activation mail.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}

	if env.GetEnv("HCAPTCHA_SECRET", "") != "" {
		if ok, err := hcaptcha.Verify(c.Context(), req.CaptchaToken); err != nil || !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "captcha_failed", "message": "Vérification captcha échouée"})
		}
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	user.BusinessSector = strings.TrimSpace(req.BusinessSector)
	user.CompanySize = strings.TrimSpace(req.CompanySize)
	user.Status = models.STATUS_INACTIVE
	if err := user.GenerateActivationToken(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Création du compte impossible"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(user.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_taken", "message": "Un compte existe déjà avec cet email"})
	}
	if err := repo.Create(user); err != nil {
		log.Errorf("user creation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Création du compte impossible"})
	}

	if err := mail.SendActivationMail(user.Email, user.ActivationToken); err != nil {
		log.Errorf("activation mail to %s failed: %v", user.Email, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      user.ID,
		"email":   user.Email,
		"message": "Compte créé. Vérifiez votre boîte mail pour activer votre compte.",
	})
}

// HandleVerifyAccount activates an account from the emailed token.
func HandleVerifyAccount(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Jeton d'activation manquant"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Jeton d'activation invalide"})
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := repo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Activation impossible"})
	}
	return c.JSON(fiber.Map{"message": "Compte activé. Vous pouvez vous connecter."})
}

// HandleLogin authenticates credentials and opens a session.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credentials", "message": "Email ou mot de passe incorrect"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Connexion impossible"})
	}

	if !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credentials", "message": "Email ou mot de passe incorrect"})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account_inactive", "message": "Compte non activé"})
	}

	if err := openUserSession(c, user); err != nil {
		log.Errorf("session open failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Connexion impossible"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Errorf("last login update failed for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"id":             user.ID,
		"name":           user.Name,
		"email":          user.Email,
		"is_admin":       user.Role == models.ROLE_ADMIN,
		"is_trial":       user.IsTrial,
		"credit_balance": user.CreditBalance,
	})
}

// HandleLogout destroys the current session.
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Errorf("session destroy failed: %v", err)
		}
	}
	return c.JSON(fiber.Map{"message": "Déconnecté"})
}

// HandleMe returns the authenticated user's account.
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Utilisateur introuvable"})
	}
	stats, err := repo.GetStatsByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Statistiques indisponibles"})
	}

	return c.JSON(fiber.Map{
		"id":                 user.ID,
		"name":               user.Name,
		"email":              user.Email,
		"role":               user.Role,
		"status":             user.Status,
		"is_trial":           user.IsTrial,
		"credit_balance":     user.CreditBalance,
		"business_sector":    user.BusinessSector,
		"company_size":       user.CompanySize,
		"preferred_ai_model": user.PreferredAIModel,
		"created_at":         user.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":      formatTimePtr(user.LastLoginAt),
		"stats": fiber.Map{
			"sessions":       stats.SessionCount,
			"paid_sessions":  stats.PaidSessions,
			"credits_spent":  stats.CreditsSpent,
			"credit_balance": stats.CreditBalance,
		},
	})
}

type profileRequest struct {
	BusinessSector   *string `json:"business_sector"`
	CompanySize      *string `json:"company_size"`
	PreferredAIModel *string `json:"preferred_ai_model"`
}

// HandleUpdateProfile updates the mutable profile fields.
func HandleUpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}

	userCtx := usercontext.GetUserContext(c)
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Utilisateur introuvable"})
	}

	if req.BusinessSector != nil {
		user.BusinessSector = strings.TrimSpace(*req.BusinessSector)
	}
	if req.CompanySize != nil {
		user.CompanySize = strings.TrimSpace(*req.CompanySize)
	}
	if req.PreferredAIModel != nil {
		user.PreferredAIModel = strings.TrimSpace(*req.PreferredAIModel)
	}
	if err := repo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Mise à jour impossible"})
	}
	return c.JSON(fiber.Map{"message": "Profil mis à jour"})
}

// openUserSession writes the authenticated identity into the session store.
func openUserSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)
	trial := "0"
	if user.IsTrial {
		trial = "1"
	}
	sess.Set("user_is_trial", trial)
	return sess.Save()
}
