package urlstrategy

import (
	"net/url"
	"strings"
)

// URLStrategy defines the interface for building the public URL of a stored object
type URLStrategy interface {
	// PublicURL returns the fetchable URL of the object at pathname
	PublicURL(pathname string) string
}

// escapePath escapes each segment of a slash-separated pathname.
func escapePath(pathname string) string {
	segments := strings.Split(strings.TrimPrefix(pathname, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
