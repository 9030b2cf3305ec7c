package database

import "time"

// Series is an indexed series directory.
type Series struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	CoverPath   string    `json:"coverPath,omitempty"`
	VolumeCount int       `json:"volumeCount"`
	IsFavorite  bool      `json:"isFavorite"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Volume is an indexed PDF volume.
type Volume struct {
	ID        int64     `json:"id"`
	Series    string    `json:"series"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modTime"`
	PageCount int       `json:"pageCount"`
	// Bookmark is the stored 0-based reading position, or -1 when the
	// volume has no bookmark.
	Bookmark int `json:"bookmark"`
}

// Bookmark is a stored reading position. Page is 0-based in storage and
// over the API; display layers add 1.
type Bookmark struct {
	Series    string    `json:"series"`
	Volume    string    `json:"volume"`
	Page      int       `json:"page"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key returns the map key form "<series>/<volume>".
func (b Bookmark) Key() string {
	return b.Series + "/" + b.Volume
}

// IndexStats summarizes the last index run.
type IndexStats struct {
	SeriesCount   int           `json:"seriesCount"`
	VolumeCount   int           `json:"volumeCount"`
	LastIndexed   time.Time     `json:"lastIndexed"`
	IndexDuration time.Duration `json:"indexDuration"`
	Errors        int           `json:"errors"`
}

// SearchResult holds a page of full-text matches.
type SearchResult struct {
	Volumes []Volume `json:"volumes"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}
