// Package media produces and caches the images the shelf serves:
// per-volume thumbnails rendered from the first PDF page, explicit
// cover overrides dropped next to a series, and the background
// pregeneration pass that warms the cache for the whole library.
//
// Thumbnails are cached on disk keyed by an md5 digest of the source
// path, so a cache entry survives restarts and is invalidated by
// renaming or moving the file, not by content edits in place.
package media
