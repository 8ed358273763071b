package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/skyvalley/source/pkg/release"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		ReleaseRoot:  ".",
		FeedFileName: release.DefaultFeedFileName,
		CacheMaxAge:  300,
		Storage: StorageConfig{
			URL:    "memory://",
			Region: "us-east-1",
		},
	}
}

// ServerConfig represents configuration of the release server
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// ReleaseRoot holds one directory per product with its feed document
	ReleaseRoot  string `env:"RELEASE_ROOT" env-default:"."`
	FeedFileName string `env:"FEED_FILENAME" env-default:"appcast.xml"`

	// CacheMaxAge is the max-age in seconds sent with redirects and feeds
	CacheMaxAge int `env:"CACHE_MAX_AGE" env-default:"300"`

	// ExactLookup forces exact-key lookups. Stores that keep objects under
	// their logical key get them without it.
	ExactLookup bool `env:"EXACT_LOOKUP" env-default:"false"`

	Storage StorageConfig
}

// WithEnv reads the configuration from environment variables.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithStorageURL selects the blob store, see ParseStorageURL.
func WithStorageURL(url string) Option {
	return func(c *ServerConfig) error {
		c.Storage.URL = url
		return nil
	}
}

// WithPublicBaseURL sets the base URL stored objects are served from.
func WithPublicBaseURL(url string) Option {
	return func(c *ServerConfig) error {
		c.Storage.PublicBaseURL = url
		return nil
	}
}

// WithReleaseRoot sets the directory feed documents are read from.
func WithReleaseRoot(root string) Option {
	return func(c *ServerConfig) error {
		c.ReleaseRoot = root
		return nil
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.ReleaseRoot == "" {
		return errors.New("release_root is required")
	}
	if c.FeedFileName == "" {
		return errors.New("feed_filename is required")
	}
	if c.CacheMaxAge < 0 {
		return errors.New("cache_max_age must not be negative")
	}
	backend, err := ParseStorageURL(c.Storage.URL)
	if err != nil {
		return err
	}
	// Without a public URL, fs objects would redirect back to the server's
	// own artifact routes.
	if backend.Type == "fs" && c.Storage.PublicBaseURL == "" {
		return errors.New("STORAGE_PUBLIC_URL is required with file:// storage")
	}
	return nil
}

// IsProduction reports whether the server runs in production
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(log *slog.Logger) (release.Service, error) {
	store, err := c.Storage.BuildBlobStore("")
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	options := []release.Option{
		release.WithBlobStore(store),
		release.WithReleaseRoot(c.ReleaseRoot),
		release.WithFeedFileName(c.FeedFileName),
	}
	if log != nil {
		options = append(options, release.WithLogger(log))
	}
	exact, err := c.Storage.ExactNaming()
	if err != nil {
		return nil, err
	}
	if exact || c.ExactLookup {
		options = append(options, release.WithExactLookup())
	}

	return release.New(options...)
}
