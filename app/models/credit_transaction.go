package models

import "time"

const (
	CREDIT_TX_DEBIT      = "debit"
	CREDIT_TX_CREDIT     = "credit"
	CREDIT_TX_ADJUSTMENT = "adjustment"
)

// CreditTransaction is one append-only ledger entry. Amount is signed
// (negative for debits) and BalanceAfter snapshots the user balance right
// after the entry was applied. Rows are never updated or deleted.
type CreditTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Type         string    `gorm:"type:varchar(20);not null" json:"type"`
	ServiceType  string    `gorm:"type:varchar(50);not null;index" json:"service_type"`
	Amount       int64     `gorm:"not null" json:"amount"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	Description  string    `gorm:"type:varchar(255)" json:"description"`
	ReferenceID  string    `gorm:"type:varchar(100);index" json:"reference_id,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
