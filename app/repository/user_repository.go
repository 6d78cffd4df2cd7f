package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByActivationToken retrieves a user by their activation token
func (r *userRepository) GetByActivationToken(token string) (*models.User, error) {
	var user models.User
	err := r.db.Where("activation_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAPIKeyHash resolves an active API key hash to its user and user settings.
func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, nil, gorm.ErrRecordNotFound
	}
	var settings models.UserSettings
	query := r.db.Where("api_key_hash = ? AND api_key_hash <> '' AND api_key_revoked_at IS NULL", trimmed)
	if err := query.First(&settings).Error; err != nil {
		return nil, nil, err
	}
	var user models.User
	if err := r.db.First(&user, settings.UserID).Error; err != nil {
		return nil, nil, err
	}
	return &user, &settings, nil
}

// GetStatsByUserID returns aggregate statistics for the given user.
func (r *userRepository) GetStatsByUserID(userID uint) (*UserStats, error) {
	var stats UserStats

	if err := r.db.Model(&models.ScrapeSession{}).
		Where("user_id = ?", userID).
		Count(&stats.SessionCount).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.ScrapeSession{}).
		Where("user_id = ? AND is_paid = ?", userID, true).
		Count(&stats.PaidSessions).Error; err != nil {
		return nil, err
	}

	var spent *int64
	err := r.db.Model(&models.CreditTransaction{}).
		Select("COALESCE(SUM(-amount), 0)").
		Where("user_id = ? AND transaction_type = ?", userID, models.CREDIT_TX_DEBIT).
		Scan(&spent).Error
	if err != nil {
		return nil, err
	}
	if spent != nil {
		stats.CreditsSpent = *spent
	}

	var user models.User
	if err := r.db.Select("credit_balance").First(&user, userID).Error; err != nil {
		return nil, err
	}
	stats.CreditBalance = user.CreditBalance
	return &stats, nil
}

// Update updates an existing user
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft-deletes a user by ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List returns a page of users ordered by creation time
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// Search finds users matching the query on name or email
func (r *userRepository) Search(query string) ([]models.User, error) {
	var users []models.User
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("name LIKE ? OR email LIKE ?", pattern, pattern).
		Order("created_at DESC").Limit(100).Find(&users).Error
	return users, err
}

// GetWithStats returns a page of users with their usage statistics
func (r *userRepository) GetWithStats(offset, limit int) ([]UserWithStats, error) {
	users, err := r.List(offset, limit)
	if err != nil {
		return nil, err
	}
	return r.attachStats(users)
}

// SearchWithStats finds users matching the query and attaches statistics
func (r *userRepository) SearchWithStats(query string) ([]UserWithStats, error) {
	users, err := r.Search(query)
	if err != nil {
		return nil, err
	}
	return r.attachStats(users)
}

func (r *userRepository) attachStats(users []models.User) ([]UserWithStats, error) {
	result := make([]UserWithStats, 0, len(users))
	for _, u := range users {
		stats, err := r.GetStatsByUserID(u.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, UserWithStats{
			User:          u,
			SessionCount:  stats.SessionCount,
			PaidSessions:  stats.PaidSessions,
			CreditsSpent:  stats.CreditsSpent,
			CreditBalance: stats.CreditBalance,
		})
	}
	return result, nil
}
