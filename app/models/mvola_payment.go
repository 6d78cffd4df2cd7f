package models

import "time"

const (
	MVOLA_STATUS_PENDING   = "pending"
	MVOLA_STATUS_COMPLETED = "completed"
	MVOLA_STATUS_FAILED    = "failed"
	MVOLA_STATUS_CANCELLED = "cancelled"
)

// MvolaPayment records one mobile-money payment attempt. The correlation id
// is generated locally and echoed back by the gateway callback.
type MvolaPayment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	SessionID      uint       `gorm:"not null;index" json:"session_id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	PackID         string     `gorm:"type:varchar(50);not null" json:"pack_id"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Amount         int64      `gorm:"not null" json:"amount"`
	Currency       string     `gorm:"type:varchar(10);not null;default:'Ar'" json:"currency"`
	CustomerMSISDN string     `gorm:"type:varchar(20);not null" json:"customer_msisdn"`
	CorrelationID  string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"correlation_id"`
	TransactionRef string     `gorm:"type:varchar(100);default:null" json:"transaction_ref,omitempty"`
	CompletedAt    *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the mobile-money payment reached a final state.
func (m *MvolaPayment) IsTerminal() bool {
	switch m.Status {
	case MVOLA_STATUS_COMPLETED, MVOLA_STATUS_FAILED, MVOLA_STATUS_CANCELLED:
		return true
	}
	return false
}
