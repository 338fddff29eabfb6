// Package config provides configuration management for dlm.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - .env files and DLM_* environment overrides
//   - Validation and logger setup
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Downloads into the current directory
//	// Two concurrent downloads
//	// Existing files are skipped
//
// # Loading
//
// Sources are applied in order, later ones winning:
//
//	_ = config.LoadDotEnv()
//	settings, err := config.Load("/path/to/dlm.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//	err = settings.ApplyEnv() // DLM_MAX_CONCURRENT_DOWNLOADS=8 ...
//	// command line flags go here
//	err = settings.Validate()
//
// # Durations
//
// Timeouts are written as Go duration strings such as "30s" or "1m30s" in
// every source.
package config
