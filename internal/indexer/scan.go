package indexer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mangashelf/internal/doctypes"
	"mangashelf/internal/filesystem"
	"mangashelf/internal/logging"
	"mangashelf/internal/media"
	"mangashelf/internal/workers"
)

// seriesEntry is one scanned series directory with its volumes.
type seriesEntry struct {
	Name      string
	Path      string
	CoverPath string
	Volumes   []volumeEntry
}

// volumeEntry is one PDF found inside a series directory.
type volumeEntry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// signature returns a change-detection fingerprint for the series: any
// volume added, removed, renamed, resized or touched changes it.
func (s *seriesEntry) signature() string {
	var b strings.Builder
	b.WriteString(s.CoverPath)
	for _, v := range s.Volumes {
		fmt.Fprintf(&b, "|%s:%d:%d", v.Name, v.Size, v.ModTime.Unix())
	}
	return b.String()
}

// scanRoots walks every library root and returns the series found, in
// deterministic path order. A missing or unreadable root contributes
// nothing; scanning never fails as a whole.
func scanRoots(roots []string) []seriesEntry {
	// Collect candidate series directories first, then stat their
	// contents concurrently: libraries often live on network mounts
	// where per-directory latency dominates.
	type candidate struct {
		name string
		path string
	}
	var candidates []candidate
	for _, root := range roots {
		entries, err := filesystem.ReadDir(root)
		if err != nil {
			logging.Warn("Library root %s unreadable, skipping: %v", root, err)
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			candidates = append(candidates, candidate{
				name: entry.Name(),
				path: filepath.Join(root, entry.Name()),
			})
		}
	}

	results := make([]*seriesEntry, len(candidates))
	sem := make(chan struct{}, workers.ForIO(0))
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c candidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = scanSeriesDir(c.name, c.path)
		}(i, c)
	}
	wg.Wait()

	series := make([]seriesEntry, 0, len(results))
	for _, s := range results {
		if s != nil {
			series = append(series, *s)
		}
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Path < series[j].Path })
	return series
}

// scanSeriesDir reads one directory and returns it as a series if it
// holds at least one volume, nil otherwise.
func scanSeriesDir(name, path string) *seriesEntry {
	entries, err := filesystem.ReadDir(path)
	if err != nil {
		logging.Warn("Series directory %s unreadable, skipping: %v", path, err)
		return nil
	}

	var volumes []volumeEntry
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !doctypes.IsVolume(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logging.Warn("Cannot stat %s: %v", filepath.Join(path, entry.Name()), err)
			continue
		}
		volumes = append(volumes, volumeEntry{
			Name:    entry.Name(),
			Path:    filepath.Join(path, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	if len(volumes) == 0 {
		return nil
	}

	sort.Slice(volumes, func(i, j int) bool { return volumes[i].Name < volumes[j].Name })
	return &seriesEntry{
		Name:      name,
		Path:      path,
		CoverPath: media.FindCover(path),
		Volumes:   volumes,
	}
}
