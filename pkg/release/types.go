package release

import (
	"fmt"
	"strings"
)

// Channel is the delivery context that decides which artifact variant is served.
type Channel string

// Channel constants (typed).
const (
	// ChannelUpdate serves the archive the auto-update client expects.
	ChannelUpdate Channel = "update"
	// ChannelDownload serves the disk image offered on the download page.
	ChannelDownload Channel = "download"
)

// ParseChannel converts a user-supplied channel name; empty means download.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case "", ChannelDownload:
		return ChannelDownload, nil
	case ChannelUpdate:
		return ChannelUpdate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChannel, s)
}

// Artifact file extensions
const (
	ExtArchive   = ".zip"
	ExtDelta     = ".delta"
	ExtDiskImage = ".dmg"
)

// ArtifactExtensions lists the extensions of files that are release artifacts.
var ArtifactExtensions = []string{ExtArchive, ExtDelta, ExtDiskImage}

// IsArtifactFile reports whether name carries one of the artifact extensions.
func IsArtifactFile(name string) bool {
	return artifactExt(name) != ""
}

func artifactExt(name string) string {
	for _, ext := range ArtifactExtensions {
		if strings.HasSuffix(name, ext) {
			return ext
		}
	}
	return ""
}

// DiskImageDir is the sub-area under a product that holds disk images.
const DiskImageDir = "dmg"

// ReleaseRecord is one published release parsed from the feed.
type ReleaseRecord struct {
	Title        string `json:"title"`
	Version      int    `json:"version"`
	ShortVersion string `json:"short_version,omitempty"`
	ArtifactURL  string `json:"artifact_url"`
}

// Feed is the normalized list of releases in a feed document. A parsed Feed
// always holds at least one record.
type Feed struct {
	Title   string
	Records []ReleaseRecord
}

// RedirectTarget tells the caller where the next request for an artifact should go.
type RedirectTarget struct {
	// Path is the relative redirect path, e.g. "/differ/dmg/Differ-1.0.dmg".
	Path string `json:"path"`
	// Key is the logical artifact key the path resolves to.
	Key string `json:"key"`
	// Filename is the distributable filename.
	Filename string `json:"filename"`
	// Release is the record the target was derived from.
	Release ReleaseRecord `json:"release"`
}
