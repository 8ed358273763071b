package urlstrategy

import (
	"fmt"
	"strings"
)

// S3Strategy builds the public object URL of an S3 bucket
type S3Strategy struct {
	Bucket       string
	Region       string
	Endpoint     string // Optional custom endpoint for S3-compatible services
	UsePathStyle bool
}

// PublicURL returns the virtual-hosted or path-style URL of the object
func (s *S3Strategy) PublicURL(pathname string) string {
	key := escapePath(pathname)

	if s.Endpoint != "" {
		endpoint := strings.TrimSuffix(s.Endpoint, "/")
		if s.UsePathStyle {
			return fmt.Sprintf("%s/%s/%s", endpoint, s.Bucket, key)
		}
		scheme, host, found := strings.Cut(endpoint, "://")
		if !found {
			return fmt.Sprintf("https://%s.%s/%s", s.Bucket, endpoint, key)
		}
		return fmt.Sprintf("%s://%s.%s/%s", scheme, s.Bucket, host, key)
	}

	region := s.Region
	if region == "" {
		region = "us-east-1"
	}
	if s.UsePathStyle {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", region, s.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.Bucket, region, key)
}
