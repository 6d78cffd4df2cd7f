package payment

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// Repository provides DB operations used by the payment service.
type Repository interface {
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error

	GetSessionByPublicID(publicID string) (*models.ScrapeSession, error)
	GetSessionByID(id uint) (*models.ScrapeSession, error)
	SaveSession(session *models.ScrapeSession) error

	GetPackByPackID(packID string) (*models.Pack, error)

	GetPaymentByCheckoutID(checkoutID string) (*models.Payment, error)
	CreatePayment(p *models.Payment) error
	SavePayment(p *models.Payment) error

	GetMvolaByCorrelationID(correlationID string) (*models.MvolaPayment, error)
	CreateMvolaPayment(p *models.MvolaPayment) error
	SaveMvolaPayment(p *models.MvolaPayment) error

	// AdjustCredits applies a signed delta to the user balance and appends
	// one ledger row whose balance_after reflects the new balance, in a
	// single transaction.
	AdjustCredits(userID uint, amount int64, txType, serviceType, description, referenceID string) (*models.CreditTransaction, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) GetSessionByPublicID(publicID string) (*models.ScrapeSession, error) {
	var session models.ScrapeSession
	if err := r.db.Where("public_id = ?", publicID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *gormRepository) GetSessionByID(id uint) (*models.ScrapeSession, error) {
	var session models.ScrapeSession
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *gormRepository) SaveSession(session *models.ScrapeSession) error {
	return r.db.Save(session).Error
}

func (r *gormRepository) GetPackByPackID(packID string) (*models.Pack, error) {
	var pack models.Pack
	if err := r.db.Where("pack_id = ?", packID).First(&pack).Error; err != nil {
		return nil, err
	}
	return &pack, nil
}

func (r *gormRepository) GetPaymentByCheckoutID(checkoutID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.Where("checkout_session_id = ?", checkoutID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) CreatePayment(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) SavePayment(p *models.Payment) error {
	return r.db.Save(p).Error
}

func (r *gormRepository) GetMvolaByCorrelationID(correlationID string) (*models.MvolaPayment, error) {
	var p models.MvolaPayment
	if err := r.db.Where("correlation_id = ?", correlationID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) CreateMvolaPayment(p *models.MvolaPayment) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) SaveMvolaPayment(p *models.MvolaPayment) error {
	return r.db.Save(p).Error
}

func (r *gormRepository) AdjustCredits(userID uint, amount int64, txType, serviceType, description, referenceID string) (*models.CreditTransaction, error) {
	if amount == 0 {
		return nil, errors.New("amount must be non-zero")
	}

	var entry *models.CreditTransaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}
		newBalance := user.CreditBalance + amount
		if newBalance < 0 {
			return ErrInsufficientCredits
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("credit_balance", newBalance).Error; err != nil {
			return err
		}
		entry = &models.CreditTransaction{
			UserID:       userID,
			Type:         txType,
			ServiceType:  serviceType,
			Amount:       amount,
			BalanceAfter: newBalance,
			Description:  description,
			ReferenceID:  referenceID,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ErrInsufficientCredits is returned when a debit would push the balance
// below zero.
var ErrInsufficientCredits = errors.New("insufficient credits")
