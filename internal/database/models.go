package database

import (
	"time"

	"mediastore-bridge/internal/mediatypes"
)

// MediaFile is a catalog entry for a file that was submitted for scanning.
type MediaFile struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Path          string              `json:"path"`
	ParentPath    string              `json:"parentPath"`
	Type          mediatypes.FileType `json:"type"`
	Size          int64               `json:"size"`
	ModTime       time.Time           `json:"modTime"`
	MimeType      string              `json:"mimeType,omitempty"`
	ThumbnailPath string              `json:"-"`
	HasThumbnail  bool                `json:"hasThumbnail"`
	IndexedAt     time.Time           `json:"indexedAt"`

	// Items and MissingItems count playlist entries; zero for other types.
	Items        int `json:"items,omitempty"`
	MissingItems int `json:"missingItems,omitempty"`
}

// CatalogStats summarizes the catalog contents.
type CatalogStats struct {
	TotalFiles    int                         `json:"totalFiles"`
	ByType        map[mediatypes.FileType]int `json:"byType"`
	TotalBytes    int64                       `json:"totalBytes"`
	LastIndexed   time.Time                   `json:"lastIndexed,omitempty"`
	LastRefreshed time.Time                   `json:"lastRefreshed"`
}
