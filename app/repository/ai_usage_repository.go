package repository

import (
	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// aiUsageRepository implements the AIUsageRepository interface
type aiUsageRepository struct {
	db *gorm.DB
}

// NewAIUsageRepository creates a new AI usage repository instance
func NewAIUsageRepository(db *gorm.DB) AIUsageRepository {
	return &aiUsageRepository{db: db}
}

// Create creates a new usage log row
func (r *aiUsageRepository) Create(usage *models.AIUsageLog) error {
	return r.db.Create(usage).Error
}

// GetByID retrieves one usage log
func (r *aiUsageRepository) GetByID(id uint) (*models.AIUsageLog, error) {
	var usage models.AIUsageLog
	if err := r.db.First(&usage, id).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

// Update updates an existing usage log
func (r *aiUsageRepository) Update(usage *models.AIUsageLog) error {
	return r.db.Save(usage).Error
}

// ListBySessionID returns all analysis runs of one session, newest first
func (r *aiUsageRepository) ListBySessionID(sessionID uint) ([]models.AIUsageLog, error) {
	var usages []models.AIUsageLog
	err := r.db.Where("session_id = ?", sessionID).Order("created_at DESC").Find(&usages).Error
	return usages, err
}

// ListByUserID returns a page of one user's analysis runs, newest first
func (r *aiUsageRepository) ListByUserID(userID uint, offset, limit int) ([]models.AIUsageLog, error) {
	var usages []models.AIUsageLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&usages).Error
	return usages, err
}
