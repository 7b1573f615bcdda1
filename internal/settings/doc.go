// Package settings persists the per-slot settings and quiet hours.
//
// Two drivers are available:
//   - "file": a single JSON document, rewritten atomically on every change
//   - "sqlite": a SQLite database (modernc.org/sqlite, no cgo)
//
// Every mutation returns the new snapshot. Readers that act on a fired alarm
// call Latest again instead of caching a snapshot.
package settings
