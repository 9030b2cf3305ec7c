// Package handlers implements the HTTP API surface: series and volume
// listings, page and thumbnail delivery, bookmarks, favorites, search,
// stats, health probes, and authentication.
//
// Handlers hold no per-request state; everything flows through the
// shared database, indexer, and renderer handles. File-serving
// endpoints validate that requested paths resolve inside a configured
// library root before touching the filesystem.
package handlers
