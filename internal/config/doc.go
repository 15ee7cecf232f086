// Package config provides configuration management for ingenuity-dl.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Validation before a run starts
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Raw images feed at mars.nasa.gov, category "ingenuity"
//	// 4 concurrent downloads, 60s per request, no retries
//	// output.gif at 3 fps
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// Durations are written as Go duration strings:
//
//	{"request_timeout": "30s", "feed_cache_ttl": "0s"}
//
// # Saving Settings
//
//	settings.MaxConcurrentDownloads = 8
//	err := settings.Save("/path/to/config.json")
package config
