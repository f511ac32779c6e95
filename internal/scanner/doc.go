// Package scanner defines the platform scan action: the step that makes a
// freshly written file visible to a media catalog.
//
// Two backends exist. Catalog queues the path for the local SQLite catalog
// indexer. Tracker sends an IndexLocation request to the Tracker miner on
// the D-Bus session bus. Both address files by their file:// URI.
package scanner
