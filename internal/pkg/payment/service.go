package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/security"
)

// ServiceTypePackPurchase is the ledger service type for pack credits.
const ServiceTypePackPurchase = "pack_purchase"

// Service reconciles processor webhook events with sessions, payments and
// the credit ledger.
type Service struct {
	repo           Repository
	downloadSecret string
	downloadTTL    time.Duration
}

// NewService creates a payment service from an injected repository.
func NewService(repo Repository) *Service {
	ttl := time.Duration(env.GetEnvInt("DOWNLOAD_TOKEN_TTL_HOURS", 72)) * time.Hour
	return &Service{
		repo:           repo,
		downloadSecret: env.GetEnv("DOWNLOAD_TOKEN_SECRET", ""),
		downloadTTL:    ttl,
	}
}

// NewServiceFromDB creates a payment service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// RecordWebhookEvent persists a webhook delivery with dedup on the provider
// event id. created=false means this delivery is a replay.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	eventID := strings.TrimSpace(in.ProviderEventID)
	if provider == "" || eventID == "" {
		return false, nil, errors.New("provider and provider_event_id are required")
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed stamps the stored event with the processing outcome.
func (s *Service) MarkWebhookProcessed(ctx context.Context, id uint, processingErr error) error {
	_ = ctx
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(id, msg)
}

// HandleCheckoutCompleted flips the session to paid after a successful card
// checkout. Safe to call again for the same checkout id: a payment row that
// already succeeded is left untouched.
func (s *Service) HandleCheckoutCompleted(ctx context.Context, in CheckoutCompletedInput) (*models.ScrapeSession, error) {
	_ = ctx
	if strings.TrimSpace(in.SessionPublicID) == "" {
		return nil, errors.New("session reference is required")
	}
	if !strings.EqualFold(in.PaymentStatus, "paid") {
		return nil, fmt.Errorf("checkout completed with payment_status %q, not marking paid", in.PaymentStatus)
	}

	session, err := s.repo.GetSessionByPublicID(in.SessionPublicID)
	if err != nil {
		return nil, fmt.Errorf("session %s not found: %w", in.SessionPublicID, err)
	}

	pack, err := s.repo.GetPackByPackID(in.PackID)
	if err != nil {
		return nil, fmt.Errorf("pack %s not found: %w", in.PackID, err)
	}

	p, err := s.repo.GetPaymentByCheckoutID(in.CheckoutSessionID)
	switch {
	case err == nil:
		if p.Status == models.PAYMENT_STATUS_SUCCEEDED {
			// Replay of an already-processed checkout.
			return session, nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		p = &models.Payment{
			SessionID:         session.ID,
			UserID:            session.UserID,
			PackID:            pack.PackID,
			Status:            models.PAYMENT_STATUS_PENDING,
			AmountCents:       in.AmountCents,
			Currency:          in.Currency,
			CheckoutSessionID: in.CheckoutSessionID,
		}
		if err := s.repo.CreatePayment(p); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	now := time.Now()
	p.Status = models.PAYMENT_STATUS_SUCCEEDED
	p.PaymentIntentID = in.PaymentIntentID
	p.CompletedAt = &now
	if err := s.repo.SavePayment(p); err != nil {
		return nil, err
	}

	if err := s.markSessionPaid(session, pack, in.PaymentIntentID); err != nil {
		return nil, err
	}
	return session, nil
}

// FailPayment records a terminal failure for a checkout.
func (s *Service) FailPayment(ctx context.Context, checkoutSessionID, failureCode string) error {
	_ = ctx
	p, err := s.repo.GetPaymentByCheckoutID(checkoutSessionID)
	if err != nil {
		return err
	}
	if p.IsTerminal() {
		return nil
	}
	p.Status = models.PAYMENT_STATUS_FAILED
	p.FailureCode = failureCode
	return s.repo.SavePayment(p)
}

// InitiateMvola creates the local pending row for a mobile-money attempt.
func (s *Service) InitiateMvola(ctx context.Context, session *models.ScrapeSession, pack *models.Pack, msisdn, correlationID string) (*models.MvolaPayment, error) {
	_ = ctx
	p := &models.MvolaPayment{
		SessionID:      session.ID,
		UserID:         session.UserID,
		PackID:         pack.PackID,
		Status:         models.MVOLA_STATUS_PENDING,
		Amount:         pack.PriceMGA,
		Currency:       "Ar",
		CustomerMSISDN: msisdn,
		CorrelationID:  correlationID,
	}
	if err := s.repo.CreateMvolaPayment(p); err != nil {
		return nil, err
	}
	return p, nil
}

// HandleMvolaCallback applies the gateway's transaction outcome. Replays of
// a terminal transaction are no-ops.
func (s *Service) HandleMvolaCallback(ctx context.Context, in MvolaCallbackInput) (*models.MvolaPayment, error) {
	_ = ctx
	p, err := s.repo.GetMvolaByCorrelationID(in.CorrelationID)
	if err != nil {
		return nil, fmt.Errorf("mvola payment %s not found: %w", in.CorrelationID, err)
	}
	if p.IsTerminal() {
		return p, nil
	}

	switch in.Status {
	case MvolaStatusCompleted:
		now := time.Now()
		p.Status = models.MVOLA_STATUS_COMPLETED
		p.TransactionRef = in.TransactionRef
		p.CompletedAt = &now
		if err := s.repo.SaveMvolaPayment(p); err != nil {
			return nil, err
		}
		return p, s.markMvolaSessionPaid(p)
	case MvolaStatusFailed:
		p.Status = models.MVOLA_STATUS_FAILED
		p.TransactionRef = in.TransactionRef
		return p, s.repo.SaveMvolaPayment(p)
	default:
		// Still pending on the gateway side; nothing to do.
		return p, nil
	}
}

func (s *Service) markMvolaSessionPaid(p *models.MvolaPayment) error {
	session, err := s.repo.GetSessionByID(p.SessionID)
	if err != nil {
		return err
	}
	pack, err := s.repo.GetPackByPackID(p.PackID)
	if err != nil {
		return err
	}
	return s.markSessionPaid(session, pack, "")
}

func (s *Service) markSessionPaid(session *models.ScrapeSession, pack *models.Pack, paymentIntentID string) error {
	token, err := security.GenerateDownloadToken(session.PublicID, session.UserID, s.downloadTTL, s.downloadSecret)
	if err != nil {
		return fmt.Errorf("failed to issue download token: %w", err)
	}

	session.IsPaid = true
	session.PackID = pack.PackID
	session.DownloadToken = token
	if paymentIntentID != "" {
		session.PaymentIntentID = paymentIntentID
	}
	if err := s.repo.SaveSession(session); err != nil {
		return err
	}

	desc := fmt.Sprintf("Achat %s", pack.Name)
	_, err = s.repo.AdjustCredits(session.UserID, int64(pack.NbDownloads), models.CREDIT_TX_CREDIT, ServiceTypePackPurchase, desc, session.PublicID)
	return err
}
