// Package memory configures Go's runtime memory limit and provides
// backpressure signals for memory-hungry background work.
//
// Unlike GOMAXPROCS, GOMEMLIMIT is not derived from cgroup limits
// automatically; a container that rasterizes PDF pages can be OOM-killed
// long before the garbage collector feels any pressure. ConfigureFromEnv
// sets GOMEMLIMIT from the MEMORY_LIMIT environment variable (typically
// injected via the Kubernetes Downward API), keeping a slice of the
// container limit in reserve for poppler subprocesses and libvips
// buffers. MEMORY_RATIO tunes that split; an explicit GOMEMLIMIT always
// wins.
//
// The Monitor type samples heap usage on an interval and pauses
// cooperating workers (WaitIfPaused) when usage crosses the critical
// water mark, resuming them once a GC cycle brings usage back down.
package memory
