package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"media-index/internal/logging"
	"media-index/internal/workers"
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
	DatabaseDir    string
	ScanRoots      []string
	ProjectName    string
	ExtractWorkers int
	ExtractTimeout time.Duration
	ScanBatchSize  int
	MetricsPort    string
	MetricsEnabled bool

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	databaseDir := getEnv("DATABASE_DIR", "/database")
	scanRootsStr := getEnv("SCAN_ROOTS", "/media")
	projectName := getEnv("PROJECT_NAME", "default")
	extractTimeoutStr := getEnv("EXTRACT_TIMEOUT", "15s")
	scanBatchSize := getEnvInt("SCAN_BATCH_SIZE", 500)
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	extractWorkers := workers.ForIO(16)

	logging.Info("  DATABASE_DIR:    %s", databaseDir)
	logging.Info("  SCAN_ROOTS:      %s", scanRootsStr)
	logging.Info("  PROJECT_NAME:    %s", projectName)
	logging.Info("  EXTRACT_WORKERS: %d", extractWorkers)
	logging.Info("  EXTRACT_TIMEOUT: %s", extractTimeoutStr)
	logging.Info("  SCAN_BATCH_SIZE: %d", scanBatchSize)
	logging.Info("  METRICS_PORT:    %s", metricsPort)
	logging.Info("  METRICS_ENABLED: %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:       %s", logging.GetLevel())

	extractTimeout, err := time.ParseDuration(extractTimeoutStr)
	if err != nil || extractTimeout <= 0 {
		logging.Warn("  Invalid EXTRACT_TIMEOUT, using default: 15s")
		extractTimeout = 15 * time.Second
	}

	if scanBatchSize < 1 {
		logging.Warn("  Invalid SCAN_BATCH_SIZE, using default: 500")
		scanBatchSize = 500
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	scanRoots, err := parseScanRoots(scanRootsStr)
	if err != nil {
		return nil, err
	}
	for _, root := range scanRoots {
		if err := checkScanRoot(root); err != nil {
			logging.Warn("  Scan root issue: %v", err)
		}
	}

	config := &Config{
		DatabaseDir:    databaseDir,
		ScanRoots:      scanRoots,
		ProjectName:    projectName,
		ExtractWorkers: extractWorkers,
		ExtractTimeout: extractTimeout,
		ScanBatchSize:  scanBatchSize,
		MetricsPort:    metricsPort,
		MetricsEnabled: metricsEnabled,
		DatabasePath:   filepath.Join(databaseDir, "index.db"),
	}

	// The database directory is required and must be writable.
	if err := ensureDirectory(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	return config, nil
}

// parseScanRoots splits the SCAN_ROOTS value on the platform list
// separator and resolves each entry to an absolute path.
func parseScanRoots(value string) ([]string, error) {
	var roots []string
	for _, entry := range strings.Split(value, string(os.PathListSeparator)) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		abs, err := filepath.Abs(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve scan root %s: %w", entry, err)
		}
		roots = append(roots, abs)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("SCAN_ROOTS contains no usable paths: %q", value)
	}
	return roots, nil
}

// checkScanRoot verifies a root exists and is a directory. Roots are
// mounted, never created.
func checkScanRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	if logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("  %s: %d files, %d directories (top level)", path, fileCount, dirCount)
		}
	}
	return nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogScannerInit logs scanner configuration before the first scan
func LogScannerInit(workers int, timeout time.Duration, batchSize int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SCANNER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Extraction workers: %d", workers)
	logging.Info("  Per-file timeout:   %v", timeout)
	logging.Info("  Batch size:         %d", batchSize)
}

// MemoryConfig holds memory limit configuration for startup logging
type MemoryConfig struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// LogMemoryConfig logs memory limit configuration
func LogMemoryConfig(mc MemoryConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if !mc.Configured {
		logging.Info("  GOMEMLIMIT:      not configured")
		logging.Info("  (set MEMORY_LIMIT or GOMEMLIMIT to bound extraction memory)")
		return
	}

	switch mc.Source {
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT:      %s (from environment)", formatBytesStartup(mc.GoMemLimit))
	case "MEMORY_LIMIT":
		logging.Info("  Container limit: %s", formatBytesStartup(mc.ContainerLimit))
		logging.Info("  GOMEMLIMIT:      %s (%.0f%% of container limit)", formatBytesStartup(mc.GoMemLimit), mc.Ratio*100)
	default:
		logging.Info("  GOMEMLIMIT:      %s", formatBytesStartup(mc.GoMemLimit))
	}
}

// formatBytesStartup formats bytes into a human-readable string
func formatBytesStartup(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___         ___         ____          __
   /  |/  /__  ____/ (_)___ _  /  _/___  ____/ /__ _  __
  / /|_/ / _ \/ __  / / __ '/  / // __ \/ __  / _ \ \/ /
 / /  / /  __/ /_/ / / /_/ / _/ // / / / /_/ /  __/>  <
/_/  /_/\___/\__,_/_/\__,_/ /___/_/ /_/\__,_/\___/_/\_\

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

func ensureDirectory(path string) error {
	logging.Debug("  Checking directory: %s", path)

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
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
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

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
