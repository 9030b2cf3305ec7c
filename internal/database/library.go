package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mangashelf/internal/natsort"
)

// sortColumn maps a natsort strategy ID to the ordering expression used
// in listings. The natural and locale keys are computed once at upsert
// time so SQLite can order with an index instead of Go re-sorting every
// listing. The expression is interpolated after a table qualifier, so
// it must stay valid with an "s." or "v." prefix.
func sortColumn(sortID int) string {
	switch sortID {
	case natsort.SortLocale:
		return "locale_key"
	case natsort.SortLexical:
		return "name COLLATE NOCASE"
	default:
		return "sort_key"
	}
}

// UpsertSeries inserts or refreshes a series record within a batch
// transaction. Sort keys are recomputed on every pass; seen marks the
// row as present for DeleteMissing. Stored at nanosecond resolution so
// back-to-back passes stay distinguishable.
func (d *Database) UpsertSeries(tx *sql.Tx, name, path, coverPath string, volumeCount int, seen time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO series (name, path, cover_path, volume_count, sort_key, locale_key, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			path = excluded.path,
			cover_path = excluded.cover_path,
			volume_count = excluded.volume_count,
			sort_key = excluded.sort_key,
			locale_key = excluded.locale_key,
			updated_at = strftime('%s', 'now'),
			last_seen = excluded.last_seen`,
		name, path, coverPath, volumeCount,
		natsort.NaturalKey(name), natsort.LocaleKey(name), seen.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert series %q: %w", name, err)
	}
	return nil
}

// UpsertVolume inserts or refreshes a volume record within a batch
// transaction.
func (d *Database) UpsertVolume(tx *sql.Tx, series, name, path string, size int64, modTime, seen time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO volumes (series, name, path, size, mod_time, sort_key, locale_key, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			series = excluded.series,
			name = excluded.name,
			size = excluded.size,
			mod_time = excluded.mod_time,
			sort_key = excluded.sort_key,
			locale_key = excluded.locale_key,
			updated_at = strftime('%s', 'now'),
			last_seen = excluded.last_seen`,
		series, name, path, size, modTime.Unix(),
		natsort.NaturalKey(name), natsort.LocaleKey(name), seen.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert volume %q: %w", path, err)
	}
	return nil
}

// SetVolumePageCount records a discovered page count for a volume.
func (d *Database) SetVolumePageCount(ctx context.Context, path string, pages int) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_page_count", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err = d.db.ExecContext(ctx,
		"UPDATE volumes SET page_count = ? WHERE path = ?", pages, path)
	return err
}

// DeleteMissing removes series and volumes not seen since the cutoff,
// i.e. files that disappeared between index passes.
func (d *Database) DeleteMissing(tx *sql.Tx, cutoff time.Time) (int64, error) {
	res, err := tx.Exec("DELETE FROM volumes WHERE last_seen < ?", cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete missing volumes: %w", err)
	}
	volumes, _ := res.RowsAffected()

	res, err = tx.Exec("DELETE FROM series WHERE last_seen < ?", cutoff.UnixNano())
	if err != nil {
		return volumes, fmt.Errorf("failed to delete missing series: %w", err)
	}
	series, _ := res.RowsAffected()

	return volumes + series, nil
}

// ListSeries returns every series ordered by the given sort strategy.
func (d *Database) ListSeries(sortID int) ([]Series, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_series", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT s.id, s.name, s.path, s.cover_path, s.volume_count, s.updated_at,
		       f.series IS NOT NULL
		FROM series s
		LEFT JOIN favorites f ON f.series = s.name
		ORDER BY s.%s`, sortColumn(sortID))

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	defer rows.Close()

	var result []Series
	for rows.Next() {
		var s Series
		var updatedAt int64
		if err = rows.Scan(&s.ID, &s.Name, &s.Path, &s.CoverPath, &s.VolumeCount, &updatedAt, &s.IsFavorite); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		s.UpdatedAt = time.Unix(updatedAt, 0)
		result = append(result, s)
	}
	err = rows.Err()
	return result, err
}

// GetSeries returns a single series by name.
func (d *Database) GetSeries(name string) (*Series, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_series", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var s Series
	var updatedAt int64
	err = d.db.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.path, s.cover_path, s.volume_count, s.updated_at,
		       f.series IS NOT NULL
		FROM series s
		LEFT JOIN favorites f ON f.series = s.name
		WHERE s.name = ?`, name).
		Scan(&s.ID, &s.Name, &s.Path, &s.CoverPath, &s.VolumeCount, &updatedAt, &s.IsFavorite)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get series %q: %w", name, err)
	}
	s.UpdatedAt = time.Unix(updatedAt, 0)
	return &s, nil
}

// ListVolumes returns the volumes of a series ordered by the given sort
// strategy, with any stored bookmark joined in (-1 when absent).
func (d *Database) ListVolumes(series string, sortID int) ([]Volume, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_volumes", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT v.id, v.series, v.name, v.path, v.size, v.mod_time, v.page_count,
		       COALESCE(b.page, -1)
		FROM volumes v
		LEFT JOIN bookmarks b ON b.series = v.series AND b.volume = v.name
		WHERE v.series = ?
		ORDER BY v.%s`, sortColumn(sortID))

	rows, err := d.db.QueryContext(ctx, query, series)
	if err != nil {
		return nil, fmt.Errorf("failed to list volumes: %w", err)
	}
	defer rows.Close()

	var result []Volume
	for rows.Next() {
		var v Volume
		var modTime int64
		if err = rows.Scan(&v.ID, &v.Series, &v.Name, &v.Path, &v.Size, &modTime, &v.PageCount, &v.Bookmark); err != nil {
			return nil, fmt.Errorf("failed to scan volume: %w", err)
		}
		v.ModTime = time.Unix(modTime, 0)
		result = append(result, v)
	}
	err = rows.Err()
	return result, err
}

// GetVolumeByPath returns the volume indexed at path, or nil when the
// path is not in the catalog.
func (d *Database) GetVolumeByPath(ctx context.Context, path string) (*Volume, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_volume", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var v Volume
	var modTime int64
	err = d.db.QueryRowContext(ctx, `
		SELECT v.id, v.series, v.name, v.path, v.size, v.mod_time, v.page_count,
		       COALESCE(b.page, -1)
		FROM volumes v
		LEFT JOIN bookmarks b ON b.series = v.series AND b.volume = v.name
		WHERE v.path = ?`, path).
		Scan(&v.ID, &v.Series, &v.Name, &v.Path, &v.Size, &modTime, &v.PageCount, &v.Bookmark)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get volume %q: %w", path, err)
	}
	v.ModTime = time.Unix(modTime, 0)
	return &v, nil
}

// AllVolumePaths returns the path of every indexed volume, used by the
// thumbnail pregeneration pass.
func (d *Database) AllVolumePaths(ctx context.Context) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("all_volume_paths", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, "SELECT path FROM volumes ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to list volume paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err = rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	err = rows.Err()
	return paths, err
}

// CalculateStats counts the indexed catalog.
func (d *Database) CalculateStats() (IndexStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("calculate_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var stats IndexStats
	if err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM series").Scan(&stats.SeriesCount); err != nil {
		return stats, err
	}
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM volumes").Scan(&stats.VolumeCount)
	return stats, err
}
