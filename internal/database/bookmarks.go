package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mangashelf/internal/metrics"
)

// SetBookmark stores the reading position for a series+volume pair.
// Page is 0-based; callers presenting 1-based numbers convert at the
// display layer. Each write replaces the previous position.
func (d *Database) SetBookmark(series, volume string, page int) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_bookmark", start, err) }()

	if page < 0 {
		err = fmt.Errorf("page must be non-negative, got %d", page)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO bookmarks (series, volume, page)
		VALUES (?, ?, ?)
		ON CONFLICT(series, volume) DO UPDATE SET
			page = excluded.page,
			updated_at = strftime('%s', 'now')`,
		series, volume, page)
	if err != nil {
		return fmt.Errorf("failed to set bookmark %s/%s: %w", series, volume, err)
	}

	metrics.LibraryBookmarksTotal.Set(float64(d.bookmarkCountUnlocked(ctx)))
	return nil
}

// GetBookmark returns the stored 0-based page for a series+volume pair,
// or -1 when no bookmark exists.
func (d *Database) GetBookmark(series, volume string) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_bookmark", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var page int
	err = d.db.QueryRowContext(ctx,
		"SELECT page FROM bookmarks WHERE series = ? AND volume = ?",
		series, volume).Scan(&page)
	if err == sql.ErrNoRows {
		err = nil
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("failed to get bookmark %s/%s: %w", series, volume, err)
	}
	return page, nil
}

// DeleteBookmark removes the stored position for a series+volume pair.
func (d *Database) DeleteBookmark(series, volume string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_bookmark", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"DELETE FROM bookmarks WHERE series = ? AND volume = ?", series, volume)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark %s/%s: %w", series, volume, err)
	}

	metrics.LibraryBookmarksTotal.Set(float64(d.bookmarkCountUnlocked(ctx)))
	return nil
}

// GetAllBookmarks returns every stored bookmark as a map keyed by
// "<series>/<volume>".
func (d *Database) GetAllBookmarks() (map[string]int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_all_bookmarks", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT series, volume, page FROM bookmarks")
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make(map[string]int)
	for rows.Next() {
		var b Bookmark
		if err = rows.Scan(&b.Series, &b.Volume, &b.Page); err != nil {
			return nil, err
		}
		bookmarks[b.Key()] = b.Page
	}
	err = rows.Err()
	return bookmarks, err
}

// GetBookmarkCount returns the number of stored bookmarks.
func (d *Database) GetBookmarkCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	return d.bookmarkCountUnlocked(ctx)
}

func (d *Database) bookmarkCountUnlocked(ctx context.Context) int {
	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookmarks").Scan(&count); err != nil {
		return 0
	}
	return count
}
