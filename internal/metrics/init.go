package metrics

// InitializeMetrics pre-populates the label combinations that should be
// visible from the first Prometheus scrape. Call once at startup.
func InitializeMetrics() {
	for _, status := range []string{"success", "error"} {
		DBQueryTotal.WithLabelValues("query", status)
		ThumbnailGenerationsTotal.WithLabelValues(status)
		ThumbnailBatchesTotal.WithLabelValues(status)
	}

	for _, backend := range []string{"vips", "poppler"} {
		RenderDuration.WithLabelValues(backend)
		RenderFailures.WithLabelValues(backend)
	}

	for _, status := range []string{"success", "failure"} {
		AuthAttemptsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"stat", "open", "readdir"} {
		FilesystemStaleHandles.WithLabelValues(op)
		for _, outcome := range []string{"success", "failure"} {
			FilesystemRetriesTotal.WithLabelValues(op, outcome)
		}
	}
}
