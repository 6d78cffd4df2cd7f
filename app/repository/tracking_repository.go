package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// trackingRepository implements the TrackingRepository interface
type trackingRepository struct {
	db *gorm.DB
}

// NewTrackingRepository creates a new page tracking repository instance
func NewTrackingRepository(db *gorm.DB) TrackingRepository {
	return &trackingRepository{db: db}
}

// GetOrCreate returns the tracking row for (user, page), creating it on
// first contact with the page.
func (r *trackingRepository) GetOrCreate(userID uint, pageURL string) (*models.FacebookPageTracking, error) {
	var tracking models.FacebookPageTracking
	err := r.db.Where("user_id = ? AND page_url = ?", userID, pageURL).First(&tracking).Error
	if err == nil {
		return &tracking, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tracking = models.FacebookPageTracking{UserID: userID, PageURL: pageURL}
	if err := r.db.Create(&tracking).Error; err != nil {
		return nil, err
	}
	return &tracking, nil
}

// GetByUserID returns all tracked pages of one user
func (r *trackingRepository) GetByUserID(userID uint) ([]models.FacebookPageTracking, error) {
	var trackings []models.FacebookPageTracking
	err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&trackings).Error
	return trackings, err
}

// Update updates an existing tracking row
func (r *trackingRepository) Update(tracking *models.FacebookPageTracking) error {
	return r.db.Save(tracking).Error
}

// Delete removes a tracking row and its dedup records
func (r *trackingRepository) Delete(id uint) error {
	return r.db.Delete(&models.FacebookPageTracking{}, id).Error
}

// KnownPostIDs returns the set of post ids already delivered to a tracking
func (r *trackingRepository) KnownPostIDs(trackingID uint) (map[string]bool, error) {
	var posts []models.ScrapedPost
	if err := r.db.Where("tracking_id = ?", trackingID).Find(&posts).Error; err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(posts))
	for _, p := range posts {
		known[p.PostID] = true
	}
	return known, nil
}
