package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride is the environment variable that overrides every computed
// worker count. Operators set it to pin the render pool size.
const EnvOverride = "THUMBNAIL_WORKERS"

// Count returns the number of workers for a given task type, derived
// from GOMAXPROCS so container CPU limits are respected (Go 1.19+).
//
// The multiplier adjusts for task characteristics: 1.0 for CPU-bound,
// 2.0 for I/O-bound, 1.5 for mixed render-and-write work. The limit
// caps the result; use 0 for no cap. THUMBNAIL_WORKERS, when set to a
// positive integer, overrides the computation (the cap still applies).
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capped(count, limit)
		}
	}

	available := runtime.GOMAXPROCS(0)
	count := int(float64(available) * multiplier)
	if count < 1 {
		count = 1
	}
	return capped(count, limit)
}

func capped(count, limit int) int {
	if limit > 0 && count > limit {
		return limit
	}
	return count
}

// ForCPU returns the worker count for CPU-bound tasks (1 per CPU),
// e.g. rasterizing PDF pages.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns the worker count for I/O-bound tasks (2 per CPU),
// e.g. walking library directories.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns the worker count for mixed tasks (1.5 per CPU),
// e.g. thumbnail generation: read document, render, write cache file.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
