package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"mediastore-bridge/internal/logging"
	"mediastore-bridge/internal/mediatypes"
	"mediastore-bridge/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned when a path has no catalog entry.
var ErrNotFound = errors.New("file not in catalog")

// Database is the SQLite-backed media catalog.
type Database struct {
	db      *sql.DB
	dbPath  string
	mu      sync.RWMutex
	stats   CatalogStats
	statsMu sync.RWMutex
}

// New opens (creating if needed) the catalog database.
// dbPath is the full path to the database FILE; its parent directory must
// already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors when several
	// indexer workers commit at once.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	if err := d.RefreshStats(ctx); err != nil {
		logging.Warn("Failed to compute initial catalog stats: %v", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		parent_path TEXT NOT NULL,
		type TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		mod_time INTEGER NOT NULL,
		mime_type TEXT,
		thumbnail_path TEXT,
		item_count INTEGER NOT NULL DEFAULT 0,
		missing_items INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		content_updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_files_parent_path ON files(parent_path);
	CREATE INDEX IF NOT EXISTS idx_files_type ON files(type);
	CREATE INDEX IF NOT EXISTS idx_files_updated_at ON files(updated_at);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// BeginBatch starts a transaction for batch operations.
// The caller is responsible for calling EndBatch when done.
func (d *Database) BeginBatch() (*sql.Tx, error) {
	// Only transaction creation is serialized; SQLite serializes the writes.
	d.mu.Lock()
	tx, err := d.db.BeginTx(context.Background(), nil)
	d.mu.Unlock()
	return tx, err
}

// EndBatch commits or rolls back a transaction.
func (d *Database) EndBatch(tx *sql.Tx, err error) error {
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}

// UpsertFile inserts or updates a file record within a transaction.
func (d *Database) UpsertFile(tx *sql.Tx, file *MediaFile) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_file", start, err) }()

	// updated_at tracks the last scan request for the path; content_updated_at
	// only moves when the file itself changed, which invalidates thumbnails.
	query := `
	INSERT INTO files (name, path, parent_path, type, size, mod_time, mime_type, item_count, missing_items, updated_at, content_updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'), strftime('%s', 'now'))
	ON CONFLICT(path) DO UPDATE SET
		name = excluded.name,
		type = excluded.type,
		size = excluded.size,
		mod_time = excluded.mod_time,
		mime_type = excluded.mime_type,
		item_count = excluded.item_count,
		missing_items = excluded.missing_items,
		updated_at = strftime('%s', 'now'),
		content_updated_at = CASE
			WHEN files.size != excluded.size
			  OR files.mod_time != excluded.mod_time
			  OR files.type != excluded.type
			THEN strftime('%s', 'now')
			ELSE files.content_updated_at
		END
	`

	_, err = tx.ExecContext(context.Background(), query,
		file.Name,
		file.Path,
		file.ParentPath,
		string(file.Type),
		file.Size,
		file.ModTime.Unix(),
		file.MimeType,
		file.Items,
		file.MissingItems,
	)
	return err
}

// DeleteFile removes the catalog entry for path. It reports whether a row
// was removed.
func (d *Database) DeleteFile(ctx context.Context, path string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_file", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM files WHERE path = ?", path)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// SetThumbnail records the generated preview for path.
func (d *Database) SetThumbnail(ctx context.Context, path, thumbnailPath string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_thumbnail", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "UPDATE files SET thumbnail_path = ? WHERE path = ?", thumbnailPath, path)
	return err
}

const fileColumns = `id, name, path, parent_path, type, size, mod_time, mime_type, COALESCE(thumbnail_path, ''), item_count, missing_items, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*MediaFile, error) {
	var file MediaFile
	var fileType string
	var mimeType sql.NullString
	var modTime, updatedAt int64

	if err := row.Scan(
		&file.ID, &file.Name, &file.Path, &file.ParentPath,
		&fileType, &file.Size, &modTime, &mimeType, &file.ThumbnailPath,
		&file.Items, &file.MissingItems, &updatedAt,
	); err != nil {
		return nil, err
	}

	file.Type = mediatypes.FileType(fileType)
	file.MimeType = mimeType.String
	file.ModTime = time.Unix(modTime, 0)
	file.IndexedAt = time.Unix(updatedAt, 0)
	file.HasThumbnail = file.ThumbnailPath != ""
	return &file, nil
}

// GetFileByPath retrieves a single file by path.
// Returns ErrNotFound when the path is not catalogued.
func (d *Database) GetFileByPath(ctx context.Context, path string) (*MediaFile, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_file", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	file, err := scanFile(d.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files WHERE path = ?", path))
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, ErrNotFound
	}
	return file, err
}

// ListRecent returns the most recently indexed files, newest first.
// An empty fileType matches every type.
func (d *Database) ListRecent(ctx context.Context, fileType mediatypes.FileType, limit int) ([]MediaFile, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_recent", start, err) }()

	if limit <= 0 {
		limit = 50
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := "SELECT " + fileColumns + " FROM files"
	args := []any{}
	if fileType != "" {
		query += " WHERE type = ?"
		args = append(args, string(fileType))
	}
	query += " ORDER BY updated_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	files := []MediaFile{}
	for rows.Next() {
		file, scanErr := scanFile(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		files = append(files, *file)
	}
	err = rows.Err()
	return files, err
}

// RefreshStats recomputes the cached catalog statistics.
func (d *Database) RefreshStats(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("refresh_stats", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT type, COUNT(*), COALESCE(SUM(size), 0), COALESCE(MAX(updated_at), 0)
		FROM files GROUP BY type
	`)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	stats := CatalogStats{
		ByType:        make(map[mediatypes.FileType]int),
		LastRefreshed: time.Now(),
	}
	var lastIndexed int64
	for rows.Next() {
		var fileType string
		var count int
		var bytes, newest int64
		if err = rows.Scan(&fileType, &count, &bytes, &newest); err != nil {
			return err
		}
		stats.ByType[mediatypes.FileType(fileType)] = count
		stats.TotalFiles += count
		stats.TotalBytes += bytes
		if newest > lastIndexed {
			lastIndexed = newest
		}
	}
	if err = rows.Err(); err != nil {
		return err
	}
	if lastIndexed > 0 {
		stats.LastIndexed = time.Unix(lastIndexed, 0)
	}

	d.statsMu.Lock()
	d.stats = stats
	d.statsMu.Unlock()
	return nil
}

// GetStats returns the cached catalog statistics.
func (d *Database) GetStats() CatalogStats {
	d.statsMu.RLock()
	defer d.statsMu.RUnlock()
	return d.stats
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, suffix := range []string{"", "-wal", "-shm"} {
		path := dbPath + suffix
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("Database file %s is read-only! Mode: %v", path, info.Mode())
		if suffix == "" {
			continue
		}
		if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", path, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", path)
		}
	}

	return nil
}
