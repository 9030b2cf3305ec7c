package media

import (
	"context"
	"errors"
	"os"
	"time"

	"mangashelf/internal/database"
	"mangashelf/internal/logging"
	"mangashelf/internal/memory"
	"mangashelf/internal/metrics"
)

// batchDelay spaces out renders during a pregeneration pass so batch
// work never starves interactive requests.
const batchDelay = 100 * time.Millisecond

// throttledDelay replaces batchDelay while memory usage sits above the
// high water mark.
const throttledDelay = 1 * time.Second

// PregenerateThumbnails walks every indexed volume and renders any
// thumbnail not already cached. Individual failures are logged and
// skipped; only a failure to enumerate the library aborts the pass.
func PregenerateThumbnails(ctx context.Context, db *database.Database, gen *ThumbnailGenerator, monitor *memory.Monitor) error {
	start := time.Now()
	paths, err := db.AllVolumePaths(ctx)
	if err != nil {
		metrics.ThumbnailBatchesTotal.WithLabelValues("error").Inc()
		return err
	}

	logging.Info("Thumbnail pregeneration: checking %d volumes", len(paths))
	generated := 0
	failed := 0
	for _, path := range paths {
		select {
		case <-ctx.Done():
			metrics.ThumbnailBatchesTotal.WithLabelValues("cancelled").Inc()
			logging.Info("Thumbnail pregeneration cancelled after %d of %d volumes", generated+failed, len(paths))
			return ctx.Err()
		default:
		}

		if _, err := os.Stat(gen.CachePath(path)); err == nil {
			continue
		}

		if monitor != nil && !monitor.WaitIfPaused() {
			metrics.ThumbnailBatchesTotal.WithLabelValues("cancelled").Inc()
			return errors.New("memory monitor stopped during pregeneration")
		}

		if _, err := gen.GetThumbnail(ctx, path); err != nil {
			if !errors.Is(err, ErrNoPreview) {
				logging.Warn("Thumbnail pregeneration failed for %s: %v", path, err)
			}
			failed++
		} else {
			generated++
		}

		delay := batchDelay
		if monitor != nil && monitor.ShouldThrottle() {
			delay = throttledDelay
		}
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}

	metrics.ThumbnailBatchesTotal.WithLabelValues("success").Inc()
	if err := db.SetLastThumbnailRun(ctx, time.Now()); err != nil {
		logging.Warn("Failed to record thumbnail run time: %v", err)
	}
	logging.Info("Thumbnail pregeneration complete: %d generated, %d failed, %d total in %v",
		generated, failed, len(paths), time.Since(start).Round(time.Millisecond))
	return nil
}
