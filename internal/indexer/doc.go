// Package indexer discovers series and volumes on disk and reconciles
// them into the catalog database.
//
// A series is any directory directly under a library root that holds at
// least one PDF; its PDFs are the volumes. Scans run on startup, on a
// periodic interval, on demand, and whenever the cheap change-detection
// poll notices the library shifted. Missing or unreadable roots scan as
// empty rather than failing, so a disconnected network mount degrades
// to an empty shelf instead of a crash loop.
package indexer
