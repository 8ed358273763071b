package urlstrategy

import (
	"fmt"
)

// URLStrategyType represents the type of URL strategy
type URLStrategyType string

const (
	// CDN strategy serving objects from a base URL
	StrategyTypeCDN URLStrategyType = "cdn"

	// S3 strategy serving objects straight from the bucket
	StrategyTypeS3 URLStrategyType = "s3"
)

// Config holds configuration for URL strategy creation
type Config struct {
	Type         URLStrategyType
	CDNBaseURL   string // For CDN strategy
	Bucket       string // For S3 strategy
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// NewURLStrategy creates a URL strategy based on the configuration
func NewURLStrategy(config Config) (URLStrategy, error) {
	switch config.Type {
	case StrategyTypeCDN:
		if config.CDNBaseURL == "" {
			return nil, fmt.Errorf("CDN base URL is required for CDN strategy")
		}
		return NewCDNStrategy(config.CDNBaseURL), nil

	case StrategyTypeS3:
		if config.Bucket == "" {
			return nil, fmt.Errorf("bucket is required for S3 strategy")
		}
		return &S3Strategy{
			Bucket:       config.Bucket,
			Region:       config.Region,
			Endpoint:     config.Endpoint,
			UsePathStyle: config.UsePathStyle,
		}, nil

	default:
		return nil, fmt.Errorf("unknown URL strategy type: %s", config.Type)
	}
}
