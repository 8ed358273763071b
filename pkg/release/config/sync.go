package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/skyvalley/source/pkg/release"
	"github.com/skyvalley/source/pkg/release/artifactsync"
)

// SyncConfig represents configuration of the artifact sync job
type SyncConfig struct {
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// Token grants write access to the blob store. It is required for every
	// backend; S3 also accepts it as "access-key-id:secret-access-key".
	Token string `env:"BLOB_READ_WRITE_TOKEN"`

	SourceRoot  string   `env:"SYNC_SOURCE_ROOT" env-default:"."`
	ExcludeDirs []string `env:"SYNC_EXCLUDE_DIRS" env-separator:"," env-default:"app,scripts,node_modules,public"`
	Concurrency int      `env:"SYNC_CONCURRENCY" env-default:"1"`
	DryRun      bool     `env:"SYNC_DRY_RUN" env-default:"false"`

	Storage StorageConfig
}

// LoadSync reads the sync job configuration from the environment. A missing
// token is reported as release.ErrConfigMissing.
func LoadSync() (*SyncConfig, error) {
	var cfg SyncConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the sync configuration
func (c *SyncConfig) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("%w: BLOB_READ_WRITE_TOKEN is not set", release.ErrConfigMissing)
	}
	if c.SourceRoot == "" {
		return fmt.Errorf("%w: SYNC_SOURCE_ROOT is empty", release.ErrConfigMissing)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("sync concurrency must be at least 1, got %d", c.Concurrency)
	}
	if _, err := ParseStorageURL(c.Storage.URL); err != nil {
		return err
	}
	return nil
}

// EngineOptions converts the configuration into sync engine options
func (c *SyncConfig) EngineOptions() artifactsync.Options {
	return artifactsync.Options{
		ExcludeDirs: c.ExcludeDirs,
		Concurrency: c.Concurrency,
		DryRun:      c.DryRun,
	}
}

// BuildBlobStore creates the blob store the job writes to
func (c *SyncConfig) BuildBlobStore() (release.BlobStore, error) {
	return c.Storage.BuildBlobStore(c.Token)
}
