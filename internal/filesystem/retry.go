// Package filesystem wraps stat, open and readdir with retry logic for
// NFS stale file handle errors. Manga libraries commonly live on NAS
// exports, and an export refresh mid-scan otherwise fails the whole
// indexing pass.
package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"mangashelf/internal/logging"
	"mangashelf/internal/metrics"
)

// RetryConfig controls backoff for transient NFS errors.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the retry behavior used across the
// application: 3 retries, 50ms initial backoff doubling to a 500ms cap.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isStaleError reports whether err is an NFS stale file handle (ESTALE,
// errno 116 on Linux). Only these errors are worth retrying; everything
// else fails immediately.
func isStaleError(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// retry runs fn with exponential backoff on stale handle errors.
func retry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				metrics.FilesystemRetriesTotal.WithLabelValues(op, "success").Inc()
			}
			return result, nil
		}
		lastErr = err

		if !isStaleError(err) {
			return zero, err
		}
		metrics.FilesystemStaleHandles.WithLabelValues(op).Inc()

		if attempt < config.MaxRetries {
			logging.Debug("NFS %s stale handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	metrics.FilesystemRetriesTotal.WithLabelValues(op, "failure").Inc()
	return zero, lastErr
}

// Stat is os.Stat with stale handle retry.
func Stat(path string) (os.FileInfo, error) {
	return retry("stat", path, DefaultRetryConfig(), func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// Open is os.Open with stale handle retry.
func Open(path string) (*os.File, error) {
	return retry("open", path, DefaultRetryConfig(), func() (*os.File, error) {
		return os.Open(path)
	})
}

// ReadDir is os.ReadDir with stale handle retry.
func ReadDir(path string) ([]os.DirEntry, error) {
	return retry("readdir", path, DefaultRetryConfig(), func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}
