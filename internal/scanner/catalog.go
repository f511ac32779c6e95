package scanner

import (
	"context"
	"fmt"

	"mediastore-bridge/internal/logging"
)

// Submitter accepts paths for asynchronous indexing.
type Submitter interface {
	Submit(ctx context.Context, path string) error
}

// Catalog hands scan requests to the local catalog indexer.
type Catalog struct {
	indexer Submitter
	log     *logging.Logger
}

// NewCatalog returns a Scanner backed by indexer.
func NewCatalog(indexer Submitter) *Catalog {
	return &Catalog{indexer: indexer, log: logging.New("scanner")}
}

// Scan queues path for indexing.
func (c *Catalog) Scan(ctx context.Context, path string) error {
	if err := c.indexer.Submit(ctx, path); err != nil {
		return fmt.Errorf("queue %s: %w", FileLocator(path), err)
	}
	c.log.Debug("queued %s", FileLocator(path))
	return nil
}
