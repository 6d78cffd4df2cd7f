package models

import "time"

const (
	PaymentProviderStripe = "stripe"
	PaymentProviderMvola  = "mvola"
)

const (
	PAYMENT_STATUS_PENDING   = "pending"
	PAYMENT_STATUS_SUCCEEDED = "succeeded"
	PAYMENT_STATUS_FAILED    = "failed"
	PAYMENT_STATUS_CANCELLED = "cancelled"
)

// Payment records one card payment attempt against a scrape session.
// At most one succeeded row may reference a given session; the unique
// checkout/intent ids enforce this at the constraint level.
type Payment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	SessionID         uint       `gorm:"not null;index" json:"session_id"`
	UserID            uint       `gorm:"not null;index" json:"user_id"`
	PackID            string     `gorm:"type:varchar(50);not null" json:"pack_id"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AmountCents       int64      `gorm:"not null" json:"amount_cents"`
	Currency          string     `gorm:"type:varchar(10);not null;default:'eur'" json:"currency"`
	CheckoutSessionID string     `gorm:"type:varchar(100);uniqueIndex" json:"-"`
	PaymentIntentID   string     `gorm:"type:varchar(100);default:null" json:"-"`
	FailureCode       string     `gorm:"type:varchar(100)" json:"failure_code,omitempty"`
	CompletedAt       *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the payment reached a final state.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PAYMENT_STATUS_SUCCEEDED, PAYMENT_STATUS_FAILED, PAYMENT_STATUS_CANCELLED:
		return true
	}
	return false
}
