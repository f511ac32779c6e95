// Package indexer applies scan requests to the local media catalog.
//
// Each submitted path is queued without blocking and picked up by a worker
// which:
//   - stats the file, retrying NFS stale handle errors
//   - classifies it (image, video, audio, playlist, other)
//   - upserts the catalog row in its own transaction
//   - renders a preview for images when a Thumbnailer is configured
//
// A path that no longer exists is removed from the catalog, since a scan
// request for a deleted file means the catalog entry is stale.
//
// Stop closes the queue and waits for workers to finish everything that
// was already accepted.
package indexer
