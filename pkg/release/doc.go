// Package release resolves published software releases to downloadable
// artifacts and locates those artifacts in a blob store.
//
// It exposes a Service that reads a release feed (a Sparkle-style appcast),
// picks the latest release for a delivery channel and maps it to the storage
// key of the matching artifact variant. Artifact bytes live in a BlobStore;
// implementations (memory, filesystem, S3) are provided under storage/.
//
// # Object Naming
//
// A blob store may append an opaque uniqueness suffix to every object it
// stores, so the physical pathname of an object is not its logical key.
// Lookups therefore search by prefix (see Locator), while the sync job in
// artifactsync deduplicates by the exact logical key. The objectkey package
// defines both naming strategies.
package release
