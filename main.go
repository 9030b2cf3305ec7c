package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mangashelf/internal/database"
	"mangashelf/internal/handlers"
	"mangashelf/internal/indexer"
	"mangashelf/internal/logging"
	"mangashelf/internal/media"
	"mangashelf/internal/memory"
	"mangashelf/internal/middleware"
	"mangashelf/internal/pdfrender"
	"mangashelf/internal/startup"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Configure GOMEMLIMIT before anything allocates in earnest
	memory.ConfigureFromEnv()
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Clean up expired sessions periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := db.CleanExpiredSessions(); err != nil {
				logging.Warn("Session cleanup failed: %v", err)
			}
		}
	}()

	// Initialize the PDF renderer
	renderer, rendErr := selectRenderer(config.Renderer)
	backend := "none"
	if renderer != nil {
		backend = renderer.Name()
	}
	startup.LogRendererInit(backend, rendErr)

	// Initialize thumbnail generation
	thumbsEnabled := config.ThumbnailsEnabled && renderer != nil
	startup.LogThumbnailInit(thumbsEnabled)
	thumbGen := media.NewThumbnailGenerator(config.ThumbnailDir, renderer, thumbsEnabled)

	pool := media.NewThumbnailPool(thumbGen, monitor, 0)
	go drainThumbnailResults(pool)

	// Initialize indexer
	startup.LogIndexerInit(config.ScanInterval)
	idx := indexer.New(db, config.LibraryDirs, config.ScanInterval)
	idx.SetPollInterval(config.PollInterval)
	if thumbsEnabled {
		idx.SetOnIndexComplete(func() { warmThumbnailCache(db, pool) })
	}
	idx.Start()
	startup.LogIndexerStarted()

	// Periodic thumbnail maintenance pass
	if thumbsEnabled {
		go func() {
			ticker := time.NewTicker(config.ThumbnailInterval)
			for range ticker.C {
				if err := media.PregenerateThumbnails(context.Background(), db, thumbGen, monitor); err != nil {
					logging.Warn("Thumbnail pregeneration failed: %v", err)
				}
			}
		}()
	}

	// Initialize handlers
	h := handlers.New(db, idx, renderer, thumbGen, config)

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	handler := middleware.Chain(router,
		middleware.Auth(db, config.AuthEnabled),
		middleware.Logger(middleware.LoggingConfig{LogHealthChecks: config.LogHealthChecks}),
		middleware.Metrics(),
	)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, idx, pool, monitor, backend)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// selectRenderer picks a PDF backend. "auto" prefers libvips (in
// process, no subprocess per page) and falls back to poppler. A nil
// renderer with a nil error never happens: an explicit backend choice
// surfaces its failure, and "auto" reports the fallback's. The server
// still runs without a renderer; page and thumbnail endpoints degrade.
func selectRenderer(name string) (pdfrender.Renderer, error) {
	tryVips := func() (pdfrender.Renderer, error) {
		if err := pdfrender.InitVips(); err != nil {
			return nil, err
		}
		return pdfrender.NewVipsRenderer(), nil
	}
	tryPoppler := func() (pdfrender.Renderer, error) {
		if err := pdfrender.CheckPoppler(); err != nil {
			return nil, err
		}
		return pdfrender.NewPopplerRenderer(), nil
	}

	switch name {
	case "vips":
		return tryVips()
	case "poppler":
		return tryPoppler()
	default:
		r, err := tryVips()
		if err == nil {
			return r, nil
		}
		logging.Warn("libvips unavailable, falling back to poppler: %v", err)
		return tryPoppler()
	}
}

// warmThumbnailCache queues every indexed volume on the thumbnail pool
// after a scan. Already-cached entries are cheap: the generator hits
// the cache without rendering.
func warmThumbnailCache(db *database.Database, pool *media.ThumbnailPool) {
	paths, err := db.AllVolumePaths(context.Background())
	if err != nil {
		logging.Warn("Cannot warm thumbnail cache: %v", err)
		return
	}
	queued := 0
	for _, path := range paths {
		if pool.Request(path) {
			queued++
		}
	}
	logging.Debug("Thumbnail warm-up queued %d of %d volumes", queued, len(paths))
}

func drainThumbnailResults(pool *media.ThumbnailPool) {
	for result := range pool.Results() {
		if result.Err != nil {
			logging.Debug("Background thumbnail for %s: %v", result.Path, result.Err)
		}
	}
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/setup-required", h.CheckSetupRequired).Methods("GET")
	auth.HandleFunc("/setup", h.Setup).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")
	auth.HandleFunc("/change-password", h.ChangePassword).Methods("POST")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods("GET")
	api.HandleFunc("/series", h.GetSeries).Methods("GET")
	api.HandleFunc("/series/{series}/volumes", h.GetVolumes).Methods("GET")
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/page", h.GetPage).Methods("GET")
	api.HandleFunc("/search", h.Search).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/reindex", h.Reindex).Methods("POST")

	// Bookmarks
	api.HandleFunc("/bookmarks", h.GetBookmarks).Methods("GET")
	api.HandleFunc("/bookmarks", h.SetBookmark).Methods("POST")
	api.HandleFunc("/bookmarks", h.DeleteBookmark).Methods("DELETE")
	api.HandleFunc("/bookmark", h.GetBookmark).Methods("GET")

	// Favorites
	api.HandleFunc("/favorites", h.GetFavorites).Methods("GET")
	api.HandleFunc("/favorites", h.AddFavorite).Methods("POST")
	api.HandleFunc("/favorites", h.RemoveFavorite).Methods("DELETE")
	api.HandleFunc("/favorites/check", h.CheckFavorite).Methods("GET")

	// Static files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))

	return r
}

func handleShutdown(srv *http.Server, idx *indexer.Indexer, pool *media.ThumbnailPool, monitor *memory.Monitor, backend string) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Draining thumbnail pool")
	pool.Close()
	startup.LogShutdownStepComplete("Thumbnail pool closed")

	monitor.Stop()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if backend == "vips" {
		pdfrender.ShutdownVips()
	}

	startup.LogShutdownComplete()
}
