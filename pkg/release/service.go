package release

import (
	"context"
)

// Service defines the main interface for serving releases
type Service interface {
	// LatestRedirect resolves the latest release of product for channel
	LatestRedirect(ctx context.Context, product string, channel Channel) (*RedirectTarget, error)

	// LocateDiskImage finds the disk image filename of product
	LocateDiskImage(ctx context.Context, product, filename string) (*StorageObject, error)

	// LocateUpdate finds the update archive filename of product
	LocateUpdate(ctx context.Context, product, filename string) (*StorageObject, error)

	// FeedDocument returns the raw feed document of product
	FeedDocument(ctx context.Context, product string) ([]byte, error)

	// Feed returns the parsed feed of product
	Feed(ctx context.Context, product string) (*Feed, error)
}
