package storage

import (
	"errors"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
)

// Config holds S3 export-archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "eu-west-3"),
		BucketName:      env.GetEnv("S3_EXPORT_BUCKET", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("S3_EXPORT_ARCHIVE_ENABLED", "false") == "true",
	}

	// Validate required fields if export archiving is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when export archiving is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when export archiving is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_EXPORT_BUCKET is required when export archiving is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if export archiving is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}
