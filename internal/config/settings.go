package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Duration is a time.Duration stored as a Go duration string ("60s", "1m30s").
// Plain numbers are accepted as seconds.
type Duration struct {
	time.Duration
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON parses "60s" style strings or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var secs float64
		if err := json.Unmarshal(data, &secs); err != nil {
			return fmt.Errorf("duration must be a string or number: %s", data)
		}
		d.Duration = time.Duration(secs * float64(time.Second))
		return nil
	}

	if s == "" {
		d.Duration = 0
		return nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Settings holds all configuration options.
type Settings struct {
	// Feed settings
	FeedURL       string   `json:"feed_url"`
	Category      string   `json:"category"`
	UserAgent     string   `json:"user_agent"`
	FeedCacheTTL  Duration `json:"feed_cache_ttl"`
	FeedCacheSize int      `json:"feed_cache_size"`

	// Download settings
	MaxConcurrentDownloads int      `json:"max_concurrent_downloads"`
	RequestTimeout         Duration `json:"request_timeout"`
	Deadline               Duration `json:"deadline"`
	DownloadMaxRetries     int      `json:"download_max_retries"`
	DownloadRetryCooldown  float64  `json:"download_retry_cooldown"`
	DownloadRetryExponent  float64  `json:"download_retry_exponent"`

	// Output settings
	FPS           int    `json:"fps"`
	OutputPath    string `json:"output_path"`
	SaveImages    bool   `json:"save_images"`
	SaveDirFormat string `json:"save_dir_format"` // {sol} is replaced
	ScaleToCanvas bool   `json:"scale_to_canvas"`
	FrameBuffer   int    `json:"frame_buffer"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		FeedURL:       "https://mars.nasa.gov/rss/api/",
		Category:      "ingenuity",
		UserAgent:     "ingenuity-dl",
		FeedCacheTTL:  Duration{30 * time.Second},
		FeedCacheSize: 16,

		MaxConcurrentDownloads: 4,
		RequestTimeout:         Duration{60 * time.Second},
		Deadline:               Duration{0},
		DownloadMaxRetries:     0,
		DownloadRetryCooldown:  0.2,
		DownloadRetryExponent:  4.0,

		FPS:           3,
		OutputPath:    "output.gif",
		SaveImages:    false,
		SaveDirFormat: "sol_{sol}",
		ScaleToCanvas: false,
		FrameBuffer:   2,
	}
}

// Load reads settings from a JSON file.
// Fields missing from the file keep their default values.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid field at once.
func (s *Settings) Validate() error {
	var errs []error
	if s.FeedURL == "" {
		errs = append(errs, errors.New("feed_url must not be empty"))
	}
	if s.Category == "" {
		errs = append(errs, errors.New("category must not be empty"))
	}
	if s.MaxConcurrentDownloads < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent_downloads must be at least 1, got %d", s.MaxConcurrentDownloads))
	}
	if s.RequestTimeout.Duration < 0 {
		errs = append(errs, errors.New("request_timeout must not be negative"))
	}
	if s.Deadline.Duration < 0 {
		errs = append(errs, errors.New("deadline must not be negative"))
	}
	if s.DownloadMaxRetries < 0 {
		errs = append(errs, errors.New("download_max_retries must not be negative"))
	}
	if s.FPS < 1 {
		errs = append(errs, fmt.Errorf("fps must be at least 1, got %d", s.FPS))
	}
	if s.OutputPath == "" {
		errs = append(errs, errors.New("output_path must not be empty"))
	}
	if s.FrameBuffer < 0 {
		errs = append(errs, errors.New("frame_buffer must not be negative"))
	}
	return errors.Join(errs...)
}

// SaveDir returns the directory kept next to outputPath when images are saved.
func (s *Settings) SaveDir(outputPath string, sol int) string {
	format := s.SaveDirFormat
	if format == "" {
		format = "sol_{sol}"
	}
	name := strings.ReplaceAll(format, "{sol}", fmt.Sprint(sol))
	return filepath.Join(filepath.Dir(outputPath), name)
}
