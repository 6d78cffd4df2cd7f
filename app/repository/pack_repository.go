package repository

import (
	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// packRepository implements the PackRepository interface
type packRepository struct {
	db *gorm.DB
}

// NewPackRepository creates a new pack repository instance
func NewPackRepository(db *gorm.DB) PackRepository {
	return &packRepository{db: db}
}

// GetAll returns the full catalog in display order
func (r *packRepository) GetAll() ([]models.Pack, error) {
	var packs []models.Pack
	err := r.db.Order("sort_order ASC").Find(&packs).Error
	return packs, err
}

// GetByPackID retrieves one pack by its slug
func (r *packRepository) GetByPackID(packID string) (*models.Pack, error) {
	var pack models.Pack
	if err := r.db.Where("pack_id = ?", packID).First(&pack).Error; err != nil {
		return nil, err
	}
	return &pack, nil
}

// Save updates or inserts a pack row
func (r *packRepository) Save(pack *models.Pack) error {
	return r.db.Save(pack).Error
}

// ReseedDefaults replaces the catalog with the static default packs.
// Runs in one transaction so a failed reseed never leaves a half catalog.
func (r *packRepository) ReseedDefaults() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Pack{}).Error; err != nil {
			return err
		}
		defaults := models.DefaultPacks()
		return tx.Create(&defaults).Error
	})
}
