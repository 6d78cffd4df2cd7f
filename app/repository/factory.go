package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetSessionRepository returns the scrape session repository instance
func (f *Factory) GetSessionRepository() SessionRepository {
	return f.GetRepositories().Session
}

// GetPackRepository returns the pack repository instance
func (f *Factory) GetPackRepository() PackRepository {
	return f.GetRepositories().Pack
}

// GetCreditRepository returns the credit ledger repository instance
func (f *Factory) GetCreditRepository() CreditRepository {
	return f.GetRepositories().Credit
}

// GetScheduledScrapeRepository returns the scheduled scrape repository instance
func (f *Factory) GetScheduledScrapeRepository() ScheduledScrapeRepository {
	return f.GetRepositories().ScheduledScrape
}

// GetTrackingRepository returns the page tracking repository instance
func (f *Factory) GetTrackingRepository() TrackingRepository {
	return f.GetRepositories().Tracking
}

// GetAIUsageRepository returns the AI usage repository instance
func (f *Factory) GetAIUsageRepository() AIUsageRepository {
	return f.GetRepositories().AIUsage
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
