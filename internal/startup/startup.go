package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"mangashelf/internal/logging"
	"mangashelf/internal/natsort"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	LibraryDirs       []string
	CacheDir          string
	DatabaseDir       string
	Port              string
	ScanInterval      time.Duration
	PollInterval      time.Duration
	ThumbnailInterval time.Duration
	AuthEnabled       bool
	DefaultSort       int
	PageScale         float64
	Renderer          string
	LogHealthChecks   bool
	MetricsEnabled    bool

	// Derived paths
	DatabasePath string
	ThumbnailDir string

	// Feature flags based on directory availability
	ThumbnailsEnabled bool
}

// baseDPI is the PDF point density a render scale of 1.0 maps to.
const baseDPI = 72.0

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	libraryDir := getEnv("LIBRARY_DIR", "/library")
	cacheDir := getEnv("CACHE_DIR", "/cache")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	scanIntervalStr := getEnv("SCAN_INTERVAL", "30m")
	pollIntervalStr := getEnv("POLL_INTERVAL", "30s")
	thumbnailIntervalStr := getEnv("THUMBNAIL_INTERVAL", "6h")
	authEnabled := getEnvBool("AUTH_ENABLED", false)
	defaultSortStr := getEnv("DEFAULT_SORT", "natural")
	renderDPIStr := getEnv("RENDER_DPI", "108")
	renderer := getEnv("PDF_RENDERER", "auto")
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  LIBRARY_DIR:         %s", libraryDir)
	logging.Info("  CACHE_DIR:           %s", cacheDir)
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  SCAN_INTERVAL:       %s", scanIntervalStr)
	logging.Info("  POLL_INTERVAL:       %s", pollIntervalStr)
	logging.Info("  THUMBNAIL_INTERVAL:  %s", thumbnailIntervalStr)
	logging.Info("  AUTH_ENABLED:        %v", authEnabled)
	logging.Info("  DEFAULT_SORT:        %s", defaultSortStr)
	logging.Info("  RENDER_DPI:          %s", renderDPIStr)
	logging.Info("  PDF_RENDERER:        %s", renderer)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	scanInterval := parseDurationEnv("SCAN_INTERVAL", scanIntervalStr, 30*time.Minute)
	pollInterval := parseDurationEnv("POLL_INTERVAL", pollIntervalStr, 30*time.Second)
	thumbnailInterval := parseDurationEnv("THUMBNAIL_INTERVAL", thumbnailIntervalStr, 6*time.Hour)

	defaultSort := natsort.StrategyByName(defaultSortStr).ID()

	pageScale := 1.5
	if dpi, err := strconv.ParseFloat(renderDPIStr, 64); err != nil || dpi <= 0 {
		logging.Warn("  Invalid RENDER_DPI, using default: 108")
	} else {
		pageScale = dpi / baseDPI
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	// LIBRARY_DIR takes a path-list so a shelf can span mounts.
	var libraryDirs []string
	for _, dir := range filepath.SplitList(libraryDir) {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve library directory path: %w", err)
		}
		libraryDirs = append(libraryDirs, abs)
		logging.Info("  Library root (absolute): %s", abs)
		// A missing library root scans as empty, so this is advisory.
		if err := ensureDirectory(abs, "library"); err != nil {
			logging.Warn("  Library root issue: %v", err)
		}
	}

	cacheDir, err := filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", cacheDir)

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	config := &Config{
		LibraryDirs:       libraryDirs,
		CacheDir:          cacheDir,
		DatabaseDir:       databaseDir,
		Port:              port,
		ScanInterval:      scanInterval,
		PollInterval:      pollInterval,
		ThumbnailInterval: thumbnailInterval,
		AuthEnabled:       authEnabled,
		DefaultSort:       defaultSort,
		PageScale:         pageScale,
		Renderer:          renderer,
		LogHealthChecks:   logHealthChecks,
		MetricsEnabled:    metricsEnabled,
		DatabasePath:      filepath.Join(databaseDir, "mangashelf.db"),
		ThumbnailDir:      filepath.Join(cacheDir, "thumbnails"),
	}

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	config.ThumbnailsEnabled = setupOptionalDir(config.ThumbnailDir, "thumbnails")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Thumbnails:  %s", enabledString(config.ThumbnailsEnabled))
	logging.Info("    Auth:        %s", enabledString(config.AuthEnabled))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func parseDurationEnv(name, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logging.Warn("  Invalid %s, using default: %v", name, fallback)
		return fallback
	}
	return d
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	testFile := filepath.Join(path, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("    failed to remove test file %s: %v", testFile, err)
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___                        _____ __         ______
   /  |/  /___ _____  ____ _____ _/ ___// /_  ___  / / __/
  / /|_/ / __ '/ __ \/ __ '/ __ '/\__ \/ __ \/ _ \/ / /_
 / /  / / /_/ / / / / /_/ / /_/ /___/ / / / /  __/ / __/
/_/  /_/\__,_/_/ /_/\__, /\__,_//____/_/ /_/\___/_/_/
                   /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "library" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
					dirCount++
				}
			}
			logging.Debug("    Contents: %d candidate series directories", dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
