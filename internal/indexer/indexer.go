package indexer

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"mangashelf/internal/database"
	"mangashelf/internal/logging"
	"mangashelf/internal/metrics"
)

// Default polling interval for change detection.
const defaultPollInterval = 30 * time.Second

// Indexer keeps the catalog in sync with the series directories under
// the configured library roots.
type Indexer struct {
	db             *database.Database
	roots          []string
	scanInterval   time.Duration
	pollInterval   time.Duration
	stopChan       chan struct{}
	stopOnce       sync.Once
	indexMu        sync.Mutex
	isIndexing     bool
	lastIndexTime  time.Time
	initialScanOK  bool
	initialScanErr error
	startTime      time.Time

	seriesIndexed  atomic.Int64
	volumesIndexed atomic.Int64

	onIndexComplete func()

	// Per-series fingerprints from the last completed scan, for
	// cheap change detection between full runs.
	stateMu        sync.RWMutex
	lastSignatures map[string]string
}

// New creates an Indexer for the given library roots. scanInterval
// controls the periodic full re-scan.
func New(db *database.Database, roots []string, scanInterval time.Duration) *Indexer {
	return &Indexer{
		db:             db,
		roots:          roots,
		scanInterval:   scanInterval,
		pollInterval:   defaultPollInterval,
		stopChan:       make(chan struct{}),
		startTime:      time.Now(),
		lastSignatures: make(map[string]string),
	}
}

// SetPollInterval sets the interval for polling-based change detection.
func (idx *Indexer) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		idx.pollInterval = interval
	}
}

// SetOnIndexComplete sets a callback invoked after each completed scan.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.onIndexComplete = callback
}

// Start launches the initial scan, change detection polling and the
// periodic full re-scan, all in the background.
func (idx *Indexer) Start() {
	go func() {
		logging.Info("Starting initial library scan in background...")
		if err := idx.Index(); err != nil {
			logging.Error("Initial library scan failed: %v", err)
			idx.indexMu.Lock()
			idx.initialScanErr = err
			idx.indexMu.Unlock()
		}
	}()

	go idx.pollForChanges()
	go idx.periodicIndex()
}

// Stop halts all background indexing activity.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() { close(idx.stopChan) })
}

// IsReady reports whether the first scan has completed. The HTTP
// readiness probe gates on this so traffic only arrives once the
// catalog is populated.
func (idx *Indexer) IsReady() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialScanOK
}

// IsIndexing reports whether a scan is currently in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// LastIndexTime returns the completion time of the last scan.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastIndexTime
}

// TriggerIndex requests a re-scan without waiting for it.
func (idx *Indexer) TriggerIndex() {
	go func() {
		if err := idx.Index(); err != nil {
			logging.Error("Manually triggered scan failed: %v", err)
		}
	}()
}

// HealthStatus carries scan state for the health endpoints.
type HealthStatus struct {
	Ready            bool      `json:"ready"`
	Indexing         bool      `json:"indexing"`
	StartTime        time.Time `json:"startTime"`
	Uptime           string    `json:"uptime"`
	LastIndexed      time.Time `json:"lastIndexed,omitempty"`
	InitialScanError string    `json:"initialScanError,omitempty"`
	SeriesIndexed    int64     `json:"seriesIndexed"`
	VolumesIndexed   int64     `json:"volumesIndexed"`
}

// GetHealthStatus returns detailed scan state.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	status := HealthStatus{
		Ready:          idx.initialScanOK,
		Indexing:       idx.isIndexing,
		StartTime:      idx.startTime,
		Uptime:         time.Since(idx.startTime).String(),
		LastIndexed:    idx.lastIndexTime,
		SeriesIndexed:  idx.seriesIndexed.Load(),
		VolumesIndexed: idx.volumesIndexed.Load(),
	}
	if idx.initialScanErr != nil {
		status.InitialScanError = idx.initialScanErr.Error()
	}
	return status
}

// Index performs a full scan of the library roots and reconciles the
// catalog with what is on disk. Concurrent calls coalesce: a second
// caller returns immediately while the first is still running.
func (idx *Indexer) Index() error {
	if !idx.tryStartIndexing() {
		logging.Info("Scan already in progress, skipping")
		return nil
	}
	defer idx.finishIndexing()

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.Inc()

	start := time.Now()
	logging.Info("Scanning %d library root(s)...", len(idx.roots))

	series := scanRoots(idx.roots)

	// One timestamp for the whole pass: rows stamped with it survive,
	// anything older has vanished from disk.
	passStamp := time.Now()
	if err := idx.storeSeries(series, passStamp); err != nil {
		metrics.IndexerErrors.Inc()
		return err
	}
	if err := idx.cleanupMissing(passStamp); err != nil {
		logging.Error("Failed to remove vanished entries: %v", err)
		metrics.IndexerErrors.Inc()
	}

	idx.finalizeIndex(start, series)
	return nil
}

func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

func (idx *Indexer) finishIndexing() {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	idx.isIndexing = false
}

// storeSeries writes the scan result to the catalog in one transaction
// per series. Row-level failures are logged and skipped so one bad
// entry cannot abort the run.
func (idx *Indexer) storeSeries(series []seriesEntry, seen time.Time) error {
	var totalVolumes int64
	tx, err := idx.db.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin scan transaction: %w", err)
	}

	for _, s := range series {
		if err := idx.db.UpsertSeries(tx, s.Name, s.Path, s.CoverPath, len(s.Volumes), seen); err != nil {
			logging.Warn("Failed to upsert series %s: %v", s.Name, err)
			continue
		}
		for _, v := range s.Volumes {
			if err := idx.db.UpsertVolume(tx, s.Name, v.Name, v.Path, v.Size, v.ModTime, seen); err != nil {
				logging.Warn("Failed to upsert volume %s: %v", v.Path, err)
				continue
			}
			totalVolumes++
		}
	}

	if err := idx.db.EndBatch(tx, nil); err != nil {
		return fmt.Errorf("failed to commit scan: %w", err)
	}

	idx.seriesIndexed.Store(int64(len(series)))
	idx.volumesIndexed.Store(totalVolumes)
	return nil
}

// cleanupMissing deletes catalog entries the scan did not touch.
func (idx *Indexer) cleanupMissing(cutoff time.Time) error {
	tx, err := idx.db.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin cleanup transaction: %w", err)
	}

	deleted, err := idx.db.DeleteMissing(tx, cutoff)
	if err != nil {
		if endErr := idx.db.EndBatch(tx, err); endErr != nil {
			logging.Error("Failed to roll back cleanup: %v", endErr)
		}
		return err
	}
	if err := idx.db.EndBatch(tx, nil); err != nil {
		return fmt.Errorf("failed to commit cleanup: %w", err)
	}

	if deleted > 0 {
		logging.Info("Removed %d vanished entries from the catalog", deleted)
	}
	return nil
}

func (idx *Indexer) finalizeIndex(start time.Time, series []seriesEntry) {
	duration := time.Since(start)

	idx.indexMu.Lock()
	idx.lastIndexTime = time.Now()
	idx.initialScanOK = true
	idx.initialScanErr = nil
	idx.indexMu.Unlock()

	signatures := make(map[string]string, len(series))
	for i := range series {
		signatures[series[i].Path] = series[i].signature()
	}
	idx.stateMu.Lock()
	idx.lastSignatures = signatures
	idx.stateMu.Unlock()

	stats, err := idx.db.CalculateStats()
	if err != nil {
		logging.Warn("Failed to calculate library stats: %v", err)
	}
	stats.LastIndexed = idx.lastIndexTime
	stats.IndexDuration = duration
	idx.db.UpdateStats(stats)

	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(duration.Seconds())
	metrics.IndexerSeriesProcessed.Add(float64(idx.seriesIndexed.Load()))
	metrics.IndexerVolumesProcessed.Add(float64(idx.volumesIndexed.Load()))
	metrics.LibrarySeriesTotal.Set(float64(idx.seriesIndexed.Load()))
	metrics.LibraryVolumesTotal.Set(float64(idx.volumesIndexed.Load()))

	logging.Info("Scan complete: %d series, %d volumes in %v",
		idx.seriesIndexed.Load(), idx.volumesIndexed.Load(), duration.Round(time.Millisecond))

	if idx.onIndexComplete != nil {
		idx.onIndexComplete()
	}
}

// pollForChanges periodically re-fingerprints the library and triggers
// a scan when the fingerprint moved. Much cheaper than a full scan: it
// only stats directories and PDF entries, never opens a file.
func (idx *Indexer) pollForChanges() {
	for !idx.IsReady() {
		select {
		case <-time.After(1 * time.Second):
		case <-idx.stopChan:
			return
		}
	}

	logging.Info("Starting change detection polling (interval: %v)", idx.pollInterval)
	ticker := time.NewTicker(idx.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if idx.detectChanges() {
				logging.Info("Library changes detected, triggering re-scan")
				if err := idx.Index(); err != nil {
					logging.Error("Re-scan after change detection failed: %v", err)
				}
			}
		case <-idx.stopChan:
			logging.Info("Change detection polling stopped")
			return
		}
	}
}

// detectChanges compares current per-series fingerprints against the
// last completed scan.
func (idx *Indexer) detectChanges() bool {
	metrics.IndexerPollChecksTotal.Inc()

	current := scanRoots(idx.roots)

	idx.stateMu.RLock()
	last := idx.lastSignatures
	idx.stateMu.RUnlock()

	if len(current) != len(last) {
		logging.Debug("Series count changed: %d -> %d", len(last), len(current))
		metrics.IndexerPollChangesDetected.Inc()
		return true
	}
	for i := range current {
		if last[current[i].Path] != current[i].signature() {
			logging.Debug("Series %s changed", current[i].Path)
			metrics.IndexerPollChangesDetected.Inc()
			return true
		}
	}
	return false
}

func (idx *Indexer) periodicIndex() {
	if idx.scanInterval <= 0 {
		return
	}
	ticker := time.NewTicker(idx.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic re-scan triggered")
			if err := idx.Index(); err != nil {
				logging.Error("Periodic re-scan failed: %v", err)
			}
		case <-idx.stopChan:
			return
		}
	}
}

// Roots returns the configured library roots.
func (idx *Indexer) Roots() []string {
	return idx.roots
}

// RootsExist reports whether at least one configured root is a readable
// directory. Informational only: missing roots scan as empty.
func (idx *Indexer) RootsExist() bool {
	for _, root := range idx.roots {
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}
