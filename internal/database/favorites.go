package database

import (
	"context"
	"fmt"
	"time"

	"mangashelf/internal/metrics"
)

// AddFavorite marks a series as a favorite. Adding an existing favorite
// is a no-op, preserving its position in the insertion order.
func (d *Database) AddFavorite(series string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_favorite", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO favorites (series) VALUES (?)", series)
	if err != nil {
		return fmt.Errorf("failed to add favorite %q: %w", series, err)
	}

	metrics.LibraryFavoritesTotal.Set(float64(d.favoriteCountUnlocked(ctx)))
	return nil
}

// RemoveFavorite unmarks a favorite series.
func (d *Database) RemoveFavorite(series string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_favorite", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE series = ?", series)
	if err != nil {
		return fmt.Errorf("failed to remove favorite %q: %w", series, err)
	}

	metrics.LibraryFavoritesTotal.Set(float64(d.favoriteCountUnlocked(ctx)))
	return nil
}

// IsFavorite reports whether a series is marked as a favorite.
func (d *Database) IsFavorite(series string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var count int
	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM favorites WHERE series = ?", series).Scan(&count); err != nil {
		return false
	}
	return count > 0
}

// GetFavorites returns the favorite series names in insertion order.
func (d *Database) GetFavorites() ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_favorites", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT series FROM favorites ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	defer rows.Close()

	var favorites []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, err
		}
		favorites = append(favorites, s)
	}
	err = rows.Err()
	return favorites, err
}

// GetFavoriteCount returns the number of favorite series.
func (d *Database) GetFavoriteCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	return d.favoriteCountUnlocked(ctx)
}

func (d *Database) favoriteCountUnlocked(ctx context.Context) int {
	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM favorites").Scan(&count); err != nil {
		return 0
	}
	return count
}
