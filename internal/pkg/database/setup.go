package database

import (
	"fmt"
	"log"
	"time"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// SetupDatabase opens the configured database and auto-migrates the schema.
// DB_DRIVER selects the backend: sqlite (dev default), postgres (production)
// or mysql for legacy deployments.
func SetupDatabase() {
	var err error

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(openDialector(), &gorm.Config{})
		if err == nil {
			DB.AutoMigrate(
				&models.User{},
				&models.UserSettings{},
				&models.ProviderAccount{},
				&models.Pack{},
				&models.ScrapeSession{},
				&models.Payment{},
				&models.MvolaPayment{},
				&models.PaymentWebhookEvent{},
				&models.CreditTransaction{},
				&models.ScheduledScrape{},
				&models.ScrapeExecution{},
				&models.DetectedChange{},
				&models.ScrapeNotification{},
				&models.FacebookPageTracking{},
				&models.ScrapedPost{},
				&models.AIUsageLog{},
			)

			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

func openDialector() gorm.Dialector {
	switch env.GetEnv("DB_DRIVER", "sqlite") {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			env.GetEnv("DB_HOST", "127.0.0.1"),
			env.GetEnv("DB_USER", ""),
			env.GetEnv("DB_PASSWORD", ""),
			env.GetEnv("DB_NAME", ""),
			env.GetEnv("DB_PORT", "5432"),
			env.GetEnv("DB_SSLMODE", "disable"),
		)
		return postgres.Open(dsn)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			env.GetEnv("DB_USER", ""),
			env.GetEnv("DB_PASSWORD", ""),
			env.GetEnv("DB_HOST", "127.0.0.1"),
			env.GetEnv("DB_PORT", "3306"),
			env.GetEnv("DB_NAME", ""),
		)
		return mysql.New(mysql.Config{
			DSN:                      dsn,
			DefaultStringSize:        256,
			DisableDatetimePrecision: true,
		})
	default:
		return sqlite.Open(env.GetEnv("DB_PATH", "testingfun.db"))
	}
}

// GetDB returns the global database handle.
func GetDB() *gorm.DB {
	return DB
}
