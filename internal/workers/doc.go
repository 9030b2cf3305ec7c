// Package workers sizes worker pools for containerized deployments.
//
// runtime.NumCPU reports the host's CPU count even when a cgroup limit
// caps the container far below it; GOMAXPROCS (Go 1.19+) tracks the
// actual limit. The helpers here derive pool sizes from GOMAXPROCS with
// a per-workload multiplier and an optional cap:
//
//	pool := workers.ForMixed(8) // thumbnail generation, max 8
//
// The THUMBNAIL_WORKERS environment variable overrides the computed
// value for operator tuning.
package workers
