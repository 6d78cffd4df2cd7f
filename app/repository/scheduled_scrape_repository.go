package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// scheduledScrapeRepository implements the ScheduledScrapeRepository interface
type scheduledScrapeRepository struct {
	db *gorm.DB
}

// NewScheduledScrapeRepository creates a new scheduled scrape repository instance
func NewScheduledScrapeRepository(db *gorm.DB) ScheduledScrapeRepository {
	return &scheduledScrapeRepository{db: db}
}

// Create creates a new recurring scrape config
func (r *scheduledScrapeRepository) Create(config *models.ScheduledScrape) error {
	return r.db.Create(config).Error
}

// GetByID retrieves one config
func (r *scheduledScrapeRepository) GetByID(id uint) (*models.ScheduledScrape, error) {
	var config models.ScheduledScrape
	if err := r.db.First(&config, id).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

// GetByUserID returns all configs owned by one user
func (r *scheduledScrapeRepository) GetByUserID(userID uint) ([]models.ScheduledScrape, error) {
	var configs []models.ScheduledScrape
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&configs).Error
	return configs, err
}

// Update updates an existing config
func (r *scheduledScrapeRepository) Update(config *models.ScheduledScrape) error {
	return r.db.Save(config).Error
}

// Delete removes a config along with its executions
func (r *scheduledScrapeRepository) Delete(id uint) error {
	return r.db.Delete(&models.ScheduledScrape{}, id).Error
}

// ListDue returns active configs whose next run time has passed
func (r *scheduledScrapeRepository) ListDue(now time.Time) ([]models.ScheduledScrape, error) {
	var configs []models.ScheduledScrape
	err := r.db.Where("is_active = ? AND (next_run_at IS NULL OR next_run_at <= ?)", true, now).
		Find(&configs).Error
	return configs, err
}

// Executions returns the most recent executions of one config
func (r *scheduledScrapeRepository) Executions(scheduleID uint, limit int) ([]models.ScrapeExecution, error) {
	var execs []models.ScrapeExecution
	err := r.db.Where("scheduled_scrape_id = ?", scheduleID).
		Order("id DESC").Limit(limit).Find(&execs).Error
	return execs, err
}

// ChangesForExecution returns the diff entries recorded for one execution
func (r *scheduledScrapeRepository) ChangesForExecution(executionID uint) ([]models.DetectedChange, error) {
	var changes []models.DetectedChange
	err := r.db.Where("scrape_execution_id = ?", executionID).Order("id ASC").Find(&changes).Error
	return changes, err
}
