package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/skyvalley/source/pkg/release"
	"github.com/skyvalley/source/pkg/release/objectkey"
	fsstorage "github.com/skyvalley/source/pkg/release/storage/fs"
	memorystorage "github.com/skyvalley/source/pkg/release/storage/memory"
	s3storage "github.com/skyvalley/source/pkg/release/storage/s3"
	"github.com/skyvalley/source/pkg/release/urlstrategy"
)

// StorageConfig selects and configures the blob store.
//
//	STORAGE_URL - Storage connection string (one of):
//	              - "memory://" - In-memory storage (default)
//	              - "file:///path/to/blobs" - Filesystem storage
//	              - "s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true" - S3 storage
//	STORAGE_PUBLIC_URL - Base URL objects are served from (CDN or file server)
//	STORAGE_RANDOM_SUFFIX - Store fs and s3 objects under uniquely suffixed names
type StorageConfig struct {
	URL           string `env:"STORAGE_URL" env-default:"memory://"`
	PublicBaseURL string `env:"STORAGE_PUBLIC_URL"`
	RandomSuffix  bool   `env:"STORAGE_RANDOM_SUFFIX" env-default:"false"`

	// S3 credentials and options; STORAGE_URL query parameters take precedence
	AccessKeyID            string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey        string `env:"AWS_SECRET_ACCESS_KEY"`
	Region                 string `env:"AWS_REGION" env-default:"us-east-1"`
	PublicACL              bool   `env:"S3_PUBLIC_ACL" env-default:"true"`
	CreateBucketIfNotExist bool   `env:"S3_CREATE_BUCKET" env-default:"false"`
}

// StorageBackendConfig is the parsed form of a storage URL
type StorageBackendConfig struct {
	Type         string // "memory", "fs", "s3"
	BaseDir      string // fs
	Bucket       string // s3
	Region       string // s3, empty means the configured region
	Endpoint     string // s3
	UsePathStyle bool   // s3
}

// ParseStorageURL parses a STORAGE_URL value
func ParseStorageURL(raw string) (StorageBackendConfig, error) {
	if raw == "" || raw == "memory" || raw == "memory://" {
		return StorageBackendConfig{Type: "memory"}, nil
	}

	switch {
	case strings.HasPrefix(raw, "file://"):
		path := strings.TrimPrefix(raw, "file://")
		if path == "" {
			return StorageBackendConfig{}, fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		return StorageBackendConfig{Type: "fs", BaseDir: path}, nil

	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return StorageBackendConfig{}, fmt.Errorf("invalid STORAGE_URL: %w", err)
		}
		if u.Host == "" {
			return StorageBackendConfig{}, fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
		}
		backend := StorageBackendConfig{
			Type:     "s3",
			Bucket:   u.Host,
			Region:   u.Query().Get("region"),
			Endpoint: u.Query().Get("endpoint"),
		}
		if v := u.Query().Get("path_style"); v != "" {
			backend.UsePathStyle, err = strconv.ParseBool(v)
			if err != nil {
				return StorageBackendConfig{}, fmt.Errorf("invalid path_style in STORAGE_URL: %w", err)
			}
		}
		return backend, nil
	}

	return StorageBackendConfig{}, fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", raw)
}

// ExactNaming reports whether the selected store keeps objects under their
// logical key. Only those stores support exact-key lookups.
func (c StorageConfig) ExactNaming() (bool, error) {
	backend, err := ParseStorageURL(c.URL)
	if err != nil {
		return false, err
	}
	switch backend.Type {
	case "fs", "s3":
		return !c.RandomSuffix, nil
	default:
		return false, nil
	}
}

// BuildBlobStore creates the blob store selected by the storage URL. The
// token, when set, supplies S3 credentials as "id:secret" if no access key
// is configured.
func (c StorageConfig) BuildBlobStore(token string) (release.BlobStore, error) {
	backend, err := ParseStorageURL(c.URL)
	if err != nil {
		return nil, err
	}

	switch backend.Type {
	case "memory":
		var opts []memorystorage.Option
		if c.PublicBaseURL != "" {
			urls, err := urlstrategy.NewURLStrategy(urlstrategy.Config{
				Type:       urlstrategy.StrategyTypeCDN,
				CDNBaseURL: c.PublicBaseURL,
			})
			if err != nil {
				return nil, err
			}
			opts = append(opts, memorystorage.WithURLStrategy(urls))
		}
		return memorystorage.New(opts...), nil

	case "fs":
		fsConfig := fsstorage.Config{
			BaseDir:   backend.BaseDir,
			URLPrefix: c.PublicBaseURL,
		}
		if c.RandomSuffix {
			fsConfig.Naming = objectkey.NewSuffixGenerator()
		}
		return fsstorage.New(fsConfig)

	case "s3":
		s3Config := s3storage.Config{
			Region:                 c.Region,
			Bucket:                 backend.Bucket,
			AccessKeyID:            c.AccessKeyID,
			SecretAccessKey:        c.SecretAccessKey,
			Endpoint:               backend.Endpoint,
			UsePathStyle:           backend.UsePathStyle,
			PublicBaseURL:          c.PublicBaseURL,
			RandomSuffix:           c.RandomSuffix,
			PublicACL:              c.PublicACL,
			CreateBucketIfNotExist: c.CreateBucketIfNotExist,
		}
		if backend.Region != "" {
			s3Config.Region = backend.Region
		}
		if s3Config.AccessKeyID == "" {
			if id, secret, ok := strings.Cut(token, ":"); ok {
				s3Config.AccessKeyID = id
				s3Config.SecretAccessKey = secret
			}
		}
		return s3storage.New(s3Config)

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", backend.Type)
	}
}
