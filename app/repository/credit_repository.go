package repository

import (
	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// creditRepository implements the CreditRepository interface
type creditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a new credit ledger repository instance
func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &creditRepository{db: db}
}

// GetBalance returns the user's current credit balance
func (r *creditRepository) GetBalance(userID uint) (int64, error) {
	var user models.User
	if err := r.db.Select("credit_balance").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.CreditBalance, nil
}

// History returns a page of the user's ledger entries, newest first
func (r *creditRepository) History(userID uint, offset, limit int) ([]models.CreditTransaction, error) {
	var txs []models.CreditTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, err
}

// CountByUserID returns the number of ledger entries for one user
func (r *creditRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CreditTransaction{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
