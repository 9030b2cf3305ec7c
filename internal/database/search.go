package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const searchLimit = 100

// Search runs a full-text search over volume and series names. Queries
// shorter than the trigram tokenizer minimum fall back to a LIKE scan.
func (d *Database) Search(query string) (*SearchResult, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("search", start, err) }()

	query = strings.TrimSpace(query)
	result := &SearchResult{Query: query}
	if query == "" {
		return result, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var rowsQuery string
	var arg string
	if len([]rune(query)) < 3 {
		rowsQuery = `
			SELECT v.id, v.series, v.name, v.path, v.size, v.mod_time, v.page_count,
			       COALESCE(b.page, -1)
			FROM volumes v
			LEFT JOIN bookmarks b ON b.series = v.series AND b.volume = v.name
			WHERE v.name LIKE ? ESCAPE '\' OR v.series LIKE ? ESCAPE '\'
			ORDER BY v.series, v.sort_key
			LIMIT ?`
		arg = "%" + escapeLike(query) + "%"
	} else {
		rowsQuery = `
			SELECT v.id, v.series, v.name, v.path, v.size, v.mod_time, v.page_count,
			       COALESCE(b.page, -1)
			FROM volumes_fts f
			JOIN volumes v ON v.id = f.rowid
			LEFT JOIN bookmarks b ON b.series = v.series AND b.volume = v.name
			WHERE volumes_fts MATCH ?
			ORDER BY rank
			LIMIT ?`
		arg = escapeFTS(query)
	}

	var rowsErr error
	if len([]rune(query)) < 3 {
		rowsErr = d.scanSearchRows(ctx, result, rowsQuery, arg, arg, searchLimit)
	} else {
		rowsErr = d.scanSearchRows(ctx, result, rowsQuery, arg, searchLimit)
	}
	if rowsErr != nil {
		err = rowsErr
		return nil, fmt.Errorf("search failed: %w", err)
	}

	result.Total = len(result.Volumes)
	return result, nil
}

func (d *Database) scanSearchRows(ctx context.Context, result *SearchResult, query string, args ...interface{}) error {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v Volume
		var modTime int64
		if err := rows.Scan(&v.ID, &v.Series, &v.Name, &v.Path, &v.Size, &modTime, &v.PageCount, &v.Bookmark); err != nil {
			return err
		}
		v.ModTime = time.Unix(modTime, 0)
		result.Volumes = append(result.Volumes, v)
	}
	return rows.Err()
}

// escapeFTS quotes the query for FTS5 so user input is matched verbatim
// instead of being parsed as match syntax.
func escapeFTS(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
}

func escapeLike(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(query)
}
