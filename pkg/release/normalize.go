package release

import "strings"

// StripArtifactExt removes a trailing artifact extension from key. Other
// dotted suffixes, such as the parts of a version number, are kept.
func StripArtifactExt(key string) string {
	if ext := artifactExt(key); ext != "" {
		return strings.TrimSuffix(key, ext)
	}
	return key
}

// validSegment reports whether s can be used as a single path segment of a key.
func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}

// joinKey joins key segments with forward slashes.
func joinKey(parts ...string) string {
	return strings.Join(parts, "/")
}
