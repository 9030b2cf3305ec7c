package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// GetMetadata returns the value for a settings key, or "" when unset.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var value string
	err := d.db.QueryRowContext(ctx,
		"SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata %q: %w", key, err)
	}
	return value, nil
}

// SetMetadata stores a settings key/value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_metadata", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata %q: %w", key, err)
	}
	return nil
}

const lastThumbnailRunKey = "last_thumbnail_run"

// GetLastThumbnailRun returns the time of the last completed thumbnail
// pregeneration pass (zero time when none has run).
func (d *Database) GetLastThumbnailRun(ctx context.Context) (time.Time, error) {
	value, err := d.GetMetadata(ctx, lastThumbnailRunKey)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s value %q: %w", lastThumbnailRunKey, value, err)
	}
	return time.Unix(unix, 0), nil
}

// SetLastThumbnailRun records a completed thumbnail pregeneration pass.
func (d *Database) SetLastThumbnailRun(ctx context.Context, t time.Time) error {
	return d.SetMetadata(ctx, lastThumbnailRunKey, strconv.FormatInt(t.Unix(), 10))
}
