package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/app/repository"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/payment"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/usercontext"
)

// HandleListPacks returns the purchasable pack catalog.
func HandleListPacks(c *fiber.Ctx) error {
	packs, err := repository.GetGlobalFactory().GetPackRepository().GetAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Catalogue indisponible"})
	}
	return c.JSON(fiber.Map{"packs": packs})
}

type checkoutRequest struct {
	SessionID string `json:"session_id"`
	PackID    string `json:"pack_id"`
}

// HandleCreateCheckout opens a card checkout for a session and pack.
func HandleCreateCheckout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}

	session, pack, errResp := loadSessionAndPack(c, req.SessionID, req.PackID)
	if session == nil {
		return errResp
	}
	if session.IsPaid {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_paid", "message": "Session déjà payée"})
	}

	userCtx := usercontext.GetUserContext(c)
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Utilisateur introuvable"})
	}

	base := strings.TrimRight(env.GetEnv("FRONTEND_URL", env.GetEnv("PUBLIC_DOMAIN", "")), "/")
	client := payment.NewStripeClientFromEnv()
	checkout, err := client.CreateCheckoutSession(c.UserContext(), payment.CheckoutParams{
		PriceID:         pack.StripePriceIDEUR,
		SessionPublicID: session.PublicID,
		PackID:          pack.PackID,
		CustomerEmail:   user.Email,
		SuccessURL:      base + "/payment/success?session_id=" + session.PublicID,
		CancelURL:       base + "/payment/cancel?session_id=" + session.PublicID,
	})
	if err != nil {
		log.Errorf("checkout creation failed for session %s: %v", session.PublicID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "processor_error", "message": "Création du paiement impossible"})
	}

	repo := payment.NewRepository(database.GetDB())
	p := &models.Payment{
		SessionID:         session.ID,
		UserID:            session.UserID,
		PackID:            pack.PackID,
		Status:            models.PAYMENT_STATUS_PENDING,
		AmountCents:       pack.PriceEURCents,
		Currency:          "eur",
		CheckoutSessionID: checkout.ID,
	}
	if err := repo.CreatePayment(p); err != nil {
		log.Errorf("payment row creation failed for checkout %s: %v", checkout.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Enregistrement du paiement impossible"})
	}

	return c.JSON(fiber.Map{"checkout_url": checkout.URL, "checkout_id": checkout.ID})
}

// HandleStripeWebhook receives card processor events. Signature first, then
// dedup on the event id, then reconciliation. Replays return 200 untouched.
func HandleStripeWebhook(c *fiber.Ctx) error {
	body := c.Body()
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	signatureValid := payment.VerifyStripeSignature(body, c.Get("Stripe-Signature"), secret, payment.DefaultSignatureTolerance)
	if !signatureValid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature", "message": "Signature invalide"})
	}

	event, err := payment.ParseEvent(body)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Événement illisible"})
	}

	svc := payment.NewServiceFromDB(database.GetDB())
	created, stored, err := svc.RecordWebhookEvent(c.UserContext(), payment.WebhookEventInput{
		Provider:        models.PaymentProviderStripe,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(body),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("webhook event persistence failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Enregistrement de l'événement impossible"})
	}
	if !created {
		// Replayed delivery, already handled.
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	processErr := processStripeEvent(c, svc, event)
	if err := svc.MarkWebhookProcessed(c.UserContext(), stored.ID, processErr); err != nil {
		log.Errorf("webhook event stamp failed: %v", err)
	}
	if processErr != nil {
		log.Errorf("webhook %s (%s) processing failed: %v", event.ID, event.Type, processErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed", "message": processErr.Error()})
	}
	return c.JSON(fiber.Map{"received": true})
}

func processStripeEvent(c *fiber.Ctx, svc *payment.Service, event *payment.Event) error {
	switch event.Type {
	case payment.EventCheckoutSessionCompleted:
		checkout, err := payment.ParseCheckoutSession(event.Data.Object)
		if err != nil {
			return err
		}
		_, err = svc.HandleCheckoutCompleted(c.UserContext(), payment.CheckoutCompletedInput{
			CheckoutSessionID: checkout.ID,
			SessionPublicID:   checkout.ClientReferenceID,
			PackID:            checkout.Metadata.PackID,
			PaymentIntentID:   checkout.PaymentIntent,
			PaymentStatus:     checkout.PaymentStatus,
			AmountCents:       checkout.AmountTotal,
			Currency:          checkout.Currency,
		})
		return err
	case payment.EventCheckoutSessionExpired:
		checkout, err := payment.ParseCheckoutSession(event.Data.Object)
		if err != nil {
			return err
		}
		return svc.FailPayment(c.UserContext(), checkout.ID, "checkout_expired")
	case payment.EventPaymentIntentFailed:
		// Informational; the checkout row fails on expiry.
		return nil
	default:
		// Unhandled event types are acknowledged and kept for audit.
		return nil
	}
}

type mvolaInitiateRequest struct {
	SessionID string `json:"session_id"`
	PackID    string `json:"pack_id"`
	MSISDN    string `json:"msisdn"`
}

// HandleMvolaInitiate starts a mobile-money payment for a session and pack.
func HandleMvolaInitiate(c *fiber.Ctx) error {
	var req mvolaInitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Corps de requête invalide"})
	}
	msisdn := strings.TrimSpace(req.MSISDN)
	if msisdn == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Numéro MVola requis"})
	}

	session, pack, errResp := loadSessionAndPack(c, req.SessionID, req.PackID)
	if session == nil {
		return errResp
	}
	if session.IsPaid {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_paid", "message": "Session déjà payée"})
	}

	correlationID := uuid.NewString()
	svc := payment.NewServiceFromDB(database.GetDB())
	if _, err := svc.InitiateMvola(c.UserContext(), session, pack, msisdn, correlationID); err != nil {
		log.Errorf("mvola row creation failed for session %s: %v", session.PublicID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Enregistrement du paiement impossible"})
	}

	client := payment.NewMvolaClientFromEnv()
	err := client.InitiatePayment(c.UserContext(), payment.MvolaInitiateParams{
		Amount:         pack.PriceMGA,
		CustomerMSISDN: msisdn,
		CorrelationID:  correlationID,
		Description:    "Achat " + pack.Name,
	})
	if err != nil {
		log.Errorf("mvola initiation failed for session %s: %v", session.PublicID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "processor_error", "message": "Initialisation MVola impossible"})
	}

	return c.JSON(fiber.Map{
		"correlation_id": correlationID,
		"status":         models.MVOLA_STATUS_PENDING,
		"message":        "Validez le paiement sur votre téléphone",
	})
}

// HandleMvolaCallback receives the gateway's transaction outcome.
func HandleMvolaCallback(c *fiber.Ctx) error {
	body := c.Body()
	callback, err := payment.ParseMvolaCallback(body)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Notification illisible"})
	}

	svc := payment.NewServiceFromDB(database.GetDB())
	created, stored, err := svc.RecordWebhookEvent(c.UserContext(), payment.WebhookEventInput{
		Provider:        models.PaymentProviderMvola,
		ProviderEventID: callback.ServerCorrelationID + ":" + callback.TransactionStatus,
		EventType:       "transaction." + callback.TransactionStatus,
		PayloadJSON:     string(body),
		SignatureValid:  true,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Enregistrement de l'événement impossible"})
	}
	if !created {
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	_, processErr := svc.HandleMvolaCallback(c.UserContext(), payment.MvolaCallbackInput{
		CorrelationID:  callback.ServerCorrelationID,
		Status:         strings.ToLower(callback.TransactionStatus),
		TransactionRef: callback.TransactionReference,
	})
	if err := svc.MarkWebhookProcessed(c.UserContext(), stored.ID, processErr); err != nil {
		log.Errorf("webhook event stamp failed: %v", err)
	}
	if processErr != nil {
		log.Errorf("mvola callback %s failed: %v", callback.ServerCorrelationID, processErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed", "message": processErr.Error()})
	}
	return c.JSON(fiber.Map{"received": true})
}

// HandlePaymentStatus reports whether a session is unlocked, and hands the
// download token to its owner once it is.
func HandlePaymentStatus(c *fiber.Ctx) error {
	session, errResp := loadOwnedSession(c)
	if session == nil {
		return errResp
	}

	resp := fiber.Map{
		"session_id": session.PublicID,
		"is_paid":    session.IsPaid,
		"status":     session.Status,
	}
	if session.IsPaid {
		resp["download_token"] = session.DownloadToken
	}
	return c.JSON(resp)
}

func loadSessionAndPack(c *fiber.Ctx, sessionID, packID string) (*models.ScrapeSession, *models.Pack, error) {
	userCtx := usercontext.GetUserContext(c)
	factory := repository.GetGlobalFactory()

	session, err := factory.GetSessionRepository().GetByPublicID(strings.TrimSpace(sessionID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Session introuvable"})
		}
		return nil, nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Chargement de la session impossible"})
	}
	if session.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Session introuvable"})
	}

	pack, err := factory.GetPackRepository().GetByPackID(strings.TrimSpace(packID))
	if err != nil {
		return nil, nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Pack introuvable"})
	}
	return session, pack, nil
}
