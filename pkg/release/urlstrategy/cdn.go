package urlstrategy

import (
	"strings"
)

// CDNStrategy serves objects from a base URL that mirrors the store layout,
// such as a CDN in front of a bucket or a file server over a directory.
type CDNStrategy struct {
	BaseURL string // e.g., "https://cdn.example.com/releases"
}

// NewCDNStrategy creates a new CDN URL strategy
func NewCDNStrategy(baseURL string) *CDNStrategy {
	return &CDNStrategy{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// PublicURL joins the base URL and the escaped pathname
func (s *CDNStrategy) PublicURL(pathname string) string {
	if s.BaseURL == "" {
		return "/" + escapePath(pathname)
	}
	return s.BaseURL + "/" + escapePath(pathname)
}
