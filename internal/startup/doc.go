// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - DATABASE_DIR: Path to database directory (default: /database)
//   - SCAN_ROOTS: Root paths to index, separated by the platform list
//     separator (default: /media)
//   - PROJECT_NAME: Project the scan runs against, created on first use
//     (default: default)
//   - EXTRACT_WORKERS: Concurrent metadata extraction workers
//     (default: derived from available CPUs)
//   - EXTRACT_TIMEOUT: Hard per-file extraction deadline as Go duration
//     (default: 15s)
//   - SCAN_BATCH_SIZE: Records committed per transaction (default: 500)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//
// # Directory Setup
//
// The package validates and creates required directories:
//   - Database directory: Required, must be writable
//   - Scan roots: Checked but not created (should be mounted)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogDatabaseInit]: Database initialization timing
//   - [LogScannerInit]: Scanner worker, timeout, and batch settings
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
package startup
