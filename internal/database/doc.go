// Package database provides the SQLite media catalog used by the catalog
// scan backend.
//
// Each scanned file becomes one row keyed by its absolute path. Repeated
// scans of the same path update the row in place, so scanning is
// idempotent. The catalog records when a path was last scanned (updated_at)
// separately from when its content last changed (content_updated_at).
//
// The database uses WAL mode so catalog readers are not blocked by indexer
// writes.
package database
