package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// sessionRepository implements the SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new scrape session repository instance
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new scrape session
func (r *sessionRepository) Create(session *models.ScrapeSession) error {
	return r.db.Create(session).Error
}

// GetByID retrieves a session by its internal ID
func (r *sessionRepository) GetByID(id uint) (*models.ScrapeSession, error) {
	var session models.ScrapeSession
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByPublicID retrieves a session by its external identifier
func (r *sessionRepository) GetByPublicID(publicID string) (*models.ScrapeSession, error) {
	var session models.ScrapeSession
	if err := r.db.Where("public_id = ?", publicID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByUserID returns a page of the user's sessions, newest first
func (r *sessionRepository) GetByUserID(userID uint, offset, limit int) ([]models.ScrapeSession, error) {
	var sessions []models.ScrapeSession
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, err
}

// Update updates an existing session
func (r *sessionRepository) Update(session *models.ScrapeSession) error {
	return r.db.Save(session).Error
}

// List returns a page of all sessions, newest first
func (r *sessionRepository) List(offset, limit int) ([]models.ScrapeSession, error) {
	var sessions []models.ScrapeSession
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, err
}

// Count returns the total number of sessions
func (r *sessionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.ScrapeSession{}).Count(&count).Error
	return count, err
}

// CountByUserID returns the number of sessions for one user
func (r *sessionRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ScrapeSession{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of sessions in the given status
func (r *sessionRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ScrapeSession{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Search finds sessions matching the query on public id or target URL
func (r *sessionRepository) Search(query string, offset, limit int) ([]models.ScrapeSession, error) {
	var sessions []models.ScrapeSession
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("public_id LIKE ? OR target_url LIKE ?", pattern, pattern).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, err
}
