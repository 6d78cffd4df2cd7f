package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	GetStatsByUserID(userID uint) (*UserStats, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetWithStats(offset, limit int) ([]UserWithStats, error)
	SearchWithStats(query string) ([]UserWithStats, error)
}

// SessionRepository defines the interface for scrape session operations
type SessionRepository interface {
	Create(session *models.ScrapeSession) error
	GetByID(id uint) (*models.ScrapeSession, error)
	GetByPublicID(publicID string) (*models.ScrapeSession, error)
	GetByUserID(userID uint, offset, limit int) ([]models.ScrapeSession, error)
	Update(session *models.ScrapeSession) error
	List(offset, limit int) ([]models.ScrapeSession, error)
	Count() (int64, error)
	CountByUserID(userID uint) (int64, error)
	CountByStatus(status string) (int64, error)
	Search(query string, offset, limit int) ([]models.ScrapeSession, error)
}

// PackRepository defines the interface for credit pack operations
type PackRepository interface {
	GetAll() ([]models.Pack, error)
	GetByPackID(packID string) (*models.Pack, error)
	Save(pack *models.Pack) error
	ReseedDefaults() error
}

// CreditRepository defines the interface for credit ledger reads
type CreditRepository interface {
	GetBalance(userID uint) (int64, error)
	History(userID uint, offset, limit int) ([]models.CreditTransaction, error)
	CountByUserID(userID uint) (int64, error)
}

// ScheduledScrapeRepository defines the interface for recurring scrape configs
type ScheduledScrapeRepository interface {
	Create(config *models.ScheduledScrape) error
	GetByID(id uint) (*models.ScheduledScrape, error)
	GetByUserID(userID uint) ([]models.ScheduledScrape, error)
	Update(config *models.ScheduledScrape) error
	Delete(id uint) error
	ListDue(now time.Time) ([]models.ScheduledScrape, error)
	Executions(scheduleID uint, limit int) ([]models.ScrapeExecution, error)
	ChangesForExecution(executionID uint) ([]models.DetectedChange, error)
}

// TrackingRepository defines the interface for Facebook page tracking state
type TrackingRepository interface {
	GetOrCreate(userID uint, pageURL string) (*models.FacebookPageTracking, error)
	GetByUserID(userID uint) ([]models.FacebookPageTracking, error)
	Update(tracking *models.FacebookPageTracking) error
	Delete(id uint) error
	KnownPostIDs(trackingID uint) (map[string]bool, error)
}

// AIUsageRepository defines the interface for LLM usage bookkeeping
type AIUsageRepository interface {
	Create(usage *models.AIUsageLog) error
	GetByID(id uint) (*models.AIUsageLog, error)
	Update(usage *models.AIUsageLog) error
	ListBySessionID(sessionID uint) ([]models.AIUsageLog, error)
	ListByUserID(userID uint, offset, limit int) ([]models.AIUsageLog, error)
}

// UserWithStats represents a user with additional statistics
type UserWithStats struct {
	User          models.User
	SessionCount  int64
	PaidSessions  int64
	CreditsSpent  int64
	CreditBalance int64
}

// UserStats provides aggregated counts for a single user.
type UserStats struct {
	SessionCount  int64
	PaidSessions  int64
	CreditsSpent  int64
	CreditBalance int64
}

// Repositories struct holds all repository instances
type Repositories struct {
	User            UserRepository
	Session         SessionRepository
	Pack            PackRepository
	Credit          CreditRepository
	ScheduledScrape ScheduledScrapeRepository
	Tracking        TrackingRepository
	AIUsage         AIUsageRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		Session:         NewSessionRepository(db),
		Pack:            NewPackRepository(db),
		Credit:          NewCreditRepository(db),
		ScheduledScrape: NewScheduledScrapeRepository(db),
		Tracking:        NewTrackingRepository(db),
		AIUsage:         NewAIUsageRepository(db),
	}
}
