// Package handlers is the HTTP and WebSocket transport of the bridge.
//
// Invocations arrive on /api/channels/{namespace}/media_store as either a
// single POST to /invoke or frames on the /ws session, and are answered
// with a bridge.Envelope. When the catalog backend is active the package
// also serves read-only catalog queries and previews under /api/catalog
// and /api/thumbnail. Health, readiness and version endpoints are never
// authenticated; everything under /api/ can be guarded by TokenAuth.
package handlers
