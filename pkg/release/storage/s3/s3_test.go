package s3

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/skyvalley/source/pkg/release"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory stand-in for the S3 API
type fakeClient struct {
	mu       sync.Mutex
	objects  map[string][]byte
	meta     map[string]map[string]string
	acl      map[string]types.ObjectCannedACL
	pageSize int
	listErr  error
	headErr  error
	putErr   error
	lists    int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		objects:  map[string][]byte{},
		meta:     map[string]map[string]string{},
		acl:      map[string]types.ObjectCannedACL{},
		pageSize: 1000,
	}
}

func (f *fakeClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}

	prefix := aws.ToString(in.Prefix)
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	max := f.pageSize
	if in.MaxKeys != nil && int(*in.MaxKeys) < max {
		max = int(*in.MaxKeys)
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if len(keys) > max {
		keys = keys[:max]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	now := time.Now()
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(f.objects[k]))),
			LastModified: aws.Time(now),
		})
	}
	return out, nil
}

func (f *fakeClient) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return nil, f.headErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(data))),
		LastModified:  aws.Time(time.Now()),
		Metadata:      f.meta[aws.ToString(in.Key)],
	}, nil
}

func (f *fakeClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.meta[key] = in.Metadata
	f.acl[key] = in.ACL
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeClient) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart upload not supported by fake")
}

func (f *fakeClient) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not supported by fake")
}

func (f *fakeClient) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart upload not supported by fake")
}

func (f *fakeClient) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func newBackend(t *testing.T, client Client, config Config) *Backend {
	t.Helper()
	backend, err := NewWithClient(client, config)
	require.NoError(t, err)
	return backend
}

// TestS3Backend_BasicConfiguration tests the configuration and creation of S3 backend
func TestS3Backend_BasicConfiguration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("EmptyBucketWithClient", func(t *testing.T) {
		_, err := NewWithClient(newFakeClient(), Config{})
		assert.ErrorContains(t, err, "bucket is required")
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		backend := newBackend(t, newFakeClient(), Config{Bucket: "releases"})
		assert.Equal(t, "us-east-1", backend.config.Region)
	})
}

func TestS3Backend_PutHeadList(t *testing.T) {
	client := newFakeClient()
	backend := newBackend(t, client, Config{Bucket: "releases", Region: "eu-west-1", PublicACL: true})
	ctx := context.Background()
	key := "differ/dmg/Differ-1.0.dmg"

	obj, err := backend.Put(ctx, key, strings.NewReader("image"), release.PutOptions{Public: true, ContentType: "application/x-apple-diskimage"})
	require.NoError(t, err)
	assert.Equal(t, key, obj.Pathname)
	assert.Equal(t, key, obj.Key)
	assert.Equal(t, int64(5), obj.Size)
	assert.Equal(t, "https://releases.s3.eu-west-1.amazonaws.com/differ/dmg/Differ-1.0.dmg", obj.URL)
	assert.Equal(t, types.ObjectCannedACLPublicRead, client.acl[key])

	head, err := backend.Head(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, obj.URL, head.URL)
	assert.Equal(t, key, head.Key)

	_, err = backend.Head(ctx, "differ/dmg/missing.dmg")
	assert.ErrorIs(t, err, release.ErrNotFound)

	objects, err := backend.List(ctx, "differ/dmg/Differ-1.0", 1)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, key, objects[0].Pathname)
}

func TestS3Backend_PrivateObjectHasNoACL(t *testing.T) {
	client := newFakeClient()
	backend := newBackend(t, client, Config{Bucket: "releases", PublicACL: true})

	_, err := backend.Put(context.Background(), "differ/a.zip", strings.NewReader("a"), release.PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.ObjectCannedACL(""), client.acl["differ/a.zip"])
}

func TestS3Backend_RandomSuffix(t *testing.T) {
	client := newFakeClient()
	backend := newBackend(t, client, Config{Bucket: "releases", PublicBaseURL: "https://cdn.example.com", RandomSuffix: true})
	ctx := context.Background()

	obj, err := backend.Put(ctx, "differ/Differ-1.0.zip", strings.NewReader("zip"), release.PutOptions{Public: true})
	require.NoError(t, err)
	assert.NotEqual(t, "differ/Differ-1.0.zip", obj.Pathname)
	assert.True(t, strings.HasPrefix(obj.URL, "https://cdn.example.com/differ/Differ-1.0-"))

	objects, err := backend.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "differ/Differ-1.0.zip", objects[0].Key)
}

func TestS3Backend_ListPaginates(t *testing.T) {
	client := newFakeClient()
	client.pageSize = 2
	backend := newBackend(t, client, Config{Bucket: "releases"})
	ctx := context.Background()

	for _, key := range []string{"differ/a.zip", "differ/b.zip", "differ/c.zip", "differ/d.zip", "differ/e.zip"} {
		_, err := backend.Put(ctx, key, strings.NewReader(key), release.PutOptions{})
		require.NoError(t, err)
	}

	all, err := backend.List(ctx, "differ/", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "differ/a.zip", all[0].Pathname)
	assert.Equal(t, "differ/e.zip", all[4].Pathname)
	assert.Equal(t, 3, client.lists)

	limited, err := backend.List(ctx, "differ/", 3)
	require.NoError(t, err)
	assert.Len(t, limited, 3)
}

func TestS3Backend_ErrorClassification(t *testing.T) {
	client := newFakeClient()
	backend := newBackend(t, client, Config{Bucket: "releases"})
	ctx := context.Background()

	client.listErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	_, err := backend.List(ctx, "differ/", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, release.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, release.ErrNotFound)

	var storageErr *release.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "s3", storageErr.Backend)
	assert.Equal(t, "list", storageErr.Op)

	client.headErr = &smithy.GenericAPIError{Code: "NoSuchKey"}
	_, err = backend.Head(ctx, "differ/a.zip")
	assert.ErrorIs(t, err, release.ErrNotFound)
	assert.NotErrorIs(t, err, release.ErrStoreUnavailable)

	client.headErr = errors.New("dial tcp: connection refused")
	_, err = backend.Head(ctx, "differ/a.zip")
	assert.ErrorIs(t, err, release.ErrStoreUnavailable)

	client.putErr = errors.New("connection reset")
	_, err = backend.Put(ctx, "differ/a.zip", strings.NewReader("a"), release.PutOptions{})
	assert.ErrorIs(t, err, release.ErrStoreUnavailable)
}
