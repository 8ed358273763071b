package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/skyvalley/source/pkg/release"
	"github.com/skyvalley/source/pkg/release/objectkey"
	"github.com/skyvalley/source/pkg/release/urlstrategy"
)

const backendName = "s3"

// metadataArtifactKey is the user metadata entry recording the logical key.
const metadataArtifactKey = "artifact-key"

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// PublicBaseURL serves objects through a CDN instead of bucket URLs
	PublicBaseURL string

	// RandomSuffix stores objects under a uniquely suffixed name instead of
	// their logical key
	RandomSuffix bool

	// PublicACL sends the public-read canned ACL for public objects. Buckets
	// with object ownership enforced reject ACLs; leave it off for those and
	// grant public read with a bucket policy.
	PublicACL bool

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// Client is the part of the S3 API the backend uses
type Client interface {
	s3.ListObjectsV2APIClient
	s3.HeadObjectAPIClient
	manager.UploadAPIClient
}

type bucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Backend is an S3-compatible implementation of the release.BlobStore interface
type Backend struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	naming   objectkey.Generator
	urls     urlstrategy.URLStrategy
	config   Config
}

// New creates a new S3-compatible storage backend
func New(config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	// Set up AWS config
	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		// Use provided credentials
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		// Use default credential chain
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)
	backend, err := NewWithClient(client, config)
	if err != nil {
		return nil, err
	}

	if config.CreateBucketIfNotExist {
		if err := backend.createBucketIfNotExists(context.Background(), client); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return backend, nil
}

// NewWithClient creates a backend over an existing client
func NewWithClient(client Client, config Config) (*Backend, error) {
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var naming objectkey.Generator = objectkey.NewExactGenerator()
	if config.RandomSuffix {
		naming = objectkey.NewSuffixGenerator()
	}

	urlConfig := urlstrategy.Config{
		Type:         urlstrategy.StrategyTypeS3,
		Bucket:       config.Bucket,
		Region:       config.Region,
		Endpoint:     config.Endpoint,
		UsePathStyle: config.UsePathStyle,
	}
	if config.PublicBaseURL != "" {
		urlConfig = urlstrategy.Config{Type: urlstrategy.StrategyTypeCDN, CDNBaseURL: config.PublicBaseURL}
	}
	urls, err := urlstrategy.NewURLStrategy(urlConfig)
	if err != nil {
		return nil, err
	}

	return &Backend{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   config.Bucket,
		naming:   naming,
		urls:     urls,
		config:   config,
	}, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (b *Backend) createBucketIfNotExists(ctx context.Context, api bucketAPI) error {
	_, err := api.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return nil
	}

	// Handle multiple error types for MinIO compatibility
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		!strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(b.bucket),
	}
	if b.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.config.Region),
		}
	}

	_, err = api.CreateBucket(ctx, createInput)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
				return nil
			}
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// List returns the objects whose key starts with prefix
func (b *Backend) List(ctx context.Context, prefix string, limit int) ([]release.StorageObject, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if limit > 0 && limit < 1000 {
		input.MaxKeys = aws.Int32(int32(limit))
	}

	objects := []release.StorageObject{}
	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, b.classify("list", prefix, err)
		}
		for _, item := range page.Contents {
			pathname := aws.ToString(item.Key)
			objects = append(objects, b.storageObject(pathname, aws.ToInt64(item.Size), aws.ToTime(item.LastModified)))
			if limit > 0 && len(objects) >= limit {
				return objects, nil
			}
		}
	}
	return objects, nil
}

// Head returns the object stored under exactly pathname
func (b *Backend) Head(ctx context.Context, pathname string) (*release.StorageObject, error) {
	result, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(pathname),
	})
	if err != nil {
		return nil, b.classify("head", pathname, err)
	}

	obj := b.storageObject(pathname, aws.ToInt64(result.ContentLength), aws.ToTime(result.LastModified))
	if key, ok := result.Metadata[metadataArtifactKey]; ok && key != "" {
		obj.Key = key
	}
	return &obj, nil
}

// Put uploads the content under a physical name derived from key
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, opts release.PutOptions) (*release.StorageObject, error) {
	pathname := b.naming.GenerateKey(key)

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := &countingReader{r: reader}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(pathname),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{metadataArtifactKey: key},
	}
	if opts.Public && b.config.PublicACL {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := b.uploader.Upload(ctx, input); err != nil {
		return nil, b.classify("put", key, err)
	}

	obj := b.storageObject(pathname, body.n, time.Now().UTC())
	obj.Key = key
	return &obj, nil
}

func (b *Backend) storageObject(pathname string, size int64, modified time.Time) release.StorageObject {
	return release.StorageObject{
		Key:        b.naming.LogicalKey(pathname),
		Pathname:   pathname,
		URL:        b.urls.PublicURL(pathname),
		Size:       size,
		UploadedAt: modified,
	}
}

// classify maps missing keys to release.ErrNotFound and every other failure
// to a StorageError, which reports as release.ErrStoreUnavailable.
func (b *Backend) classify(op, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return fmt.Errorf("%w: %s", release.ErrNotFound, key)
		}
	}
	return &release.StorageError{Backend: backendName, Key: key, Op: op, Err: err}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
