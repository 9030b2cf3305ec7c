// Package startup owns boot-time concerns: environment-driven
// configuration with directory validation and write probes, the
// startup banner, and the structured phase logging main walks through
// while bringing the service up and back down.
package startup
