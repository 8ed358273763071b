package release

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Latest returns the record with the highest version. When several records
// share the highest version the one listed first wins.
func Latest(feed *Feed) (ReleaseRecord, error) {
	if feed == nil || len(feed.Records) == 0 {
		return ReleaseRecord{}, fmt.Errorf("%w: no items", ErrMalformedFeed)
	}
	latest := 0
	for i := 1; i < len(feed.Records); i++ {
		if feed.Records[i].Version > feed.Records[latest].Version {
			latest = i
		}
	}
	return feed.Records[latest], nil
}

// ResolveLatest picks the latest release of feed and computes where the
// artifact for channel is served from. It does not touch the blob store.
func ResolveLatest(feed *Feed, product string, channel Channel) (*RedirectTarget, error) {
	if channel != ChannelUpdate && channel != ChannelDownload {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}

	record, err := Latest(feed)
	if err != nil {
		return nil, err
	}

	filename := ArtifactFilename(record.ArtifactURL)
	if filename == "" {
		return nil, fmt.Errorf("%w: no filename in enclosure url %q", ErrMalformedFeed, record.ArtifactURL)
	}

	target := &RedirectTarget{Release: record}
	switch channel {
	case ChannelDownload:
		// The feed lists the update archive; the download page serves the
		// disk image built alongside it.
		target.Filename = DiskImageFilename(filename)
		target.Key = joinKey(product, DiskImageDir, target.Filename)
		target.Path = "/" + joinKey(product, DiskImageDir, target.Filename)
	case ChannelUpdate:
		target.Filename = filename
		target.Key = joinKey(product, filename)
		target.Path = "/" + joinKey(product, "download", filename)
	}
	return target, nil
}

// ArtifactFilename returns the last path segment of an enclosure URL.
func ArtifactFilename(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// DiskImageFilename swaps the archive extension of filename for the disk
// image extension. Names without the archive extension are returned as is.
func DiskImageFilename(filename string) string {
	if strings.HasSuffix(filename, ExtArchive) {
		return strings.TrimSuffix(filename, ExtArchive) + ExtDiskImage
	}
	return filename
}
