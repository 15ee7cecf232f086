package download

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/handiism/ingenuity-dl/internal/animation"
	"github.com/handiism/ingenuity-dl/internal/config"
	"github.com/handiism/ingenuity-dl/internal/http"
	ioutils "github.com/handiism/ingenuity-dl/internal/io"
	"github.com/handiism/ingenuity-dl/internal/model"
	"github.com/handiism/ingenuity-dl/internal/nasa"
)

// Options selects what a single Manager run produces.
type Options struct {
	// Sol to download, or model.LatestSol.
	Sol model.Sol

	// Output is the GIF path. Empty uses Settings.OutputPath.
	Output string

	// FPS is the playback rate. Zero uses Settings.FPS.
	FPS int

	// Save keeps the downloaded originals next to Output.
	Save bool
}

// Result describes a finished run.
type Result struct {
	Sol    model.Sol
	Frames int
	Output string

	// SaveDir holds the original images when Options.Save was set.
	SaveDir string
}

// Manager coordinates a sol download: resolve, list, download, encode.
type Manager struct {
	settings   *config.Settings
	feed       *nasa.Client
	downloader *Downloader
	pipeline   *animation.Pipeline
	logger     *slog.Logger

	totalFiles      atomic.Int32
	downloadedFiles atomic.Int32
	encodedFrames   atomic.Int32

	onProgress ProgressFunc
	mu         sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

type managerConfig struct {
	logger *slog.Logger
	getter Getter
}

// WithLogger sets the logger passed to every component.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(c *managerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithGetter replaces the HTTP client built from the settings.
func WithGetter(g Getter) ManagerOption {
	return func(c *managerConfig) {
		c.getter = g
	}
}

// NewManager creates a new download Manager. onProgress may be nil.
func NewManager(settings *config.Settings, onProgress ProgressFunc, opts ...ManagerOption) *Manager {
	cfg := managerConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	getter := cfg.getter
	if getter == nil {
		getter = http.NewClient(
			http.WithTimeout(settings.RequestTimeout.Duration),
			http.WithUserAgent(settings.UserAgent),
			http.WithRetries(settings.DownloadMaxRetries, settings.DownloadRetryCooldown, settings.DownloadRetryExponent),
			http.WithLogger(cfg.logger),
		)
	}

	m := &Manager{
		settings:   settings,
		logger:     cfg.logger,
		onProgress: onProgress,
	}

	m.feed = nasa.NewClient(getter,
		nasa.WithFeedURL(settings.FeedURL),
		nasa.WithCategory(settings.Category),
		nasa.WithCache(settings.FeedCacheSize, settings.FeedCacheTTL.Duration),
		nasa.WithLogger(cfg.logger),
	)
	m.downloader = NewDownloader(getter, settings.MaxConcurrentDownloads,
		WithDownloaderLogger(cfg.logger),
		WithDownloadProgress(func(done, total int) {
			m.downloadedFiles.Store(int32(done))
			m.progress(ProgressEvent{Kind: EventDownloaded, Level: LevelVerbose, Current: done, Total: total,
				Message: fmt.Sprintf("Downloaded %d/%d", done, total)})
		}),
	)
	m.pipeline = animation.NewPipeline(
		animation.WithFrameBuffer(settings.FrameBuffer),
		animation.WithScaleToCanvas(settings.ScaleToCanvas),
		animation.WithPipelineLogger(cfg.logger),
		animation.WithFrameProgress(func(done, total int) {
			m.encodedFrames.Store(int32(done))
			m.progress(ProgressEvent{Kind: EventEncoded, Level: LevelVerbose, Current: done, Total: total,
				Message: fmt.Sprintf("Encoded frame %d/%d", done, total)})
		}),
	)

	return m
}

// GetProgress returns the image counts of the current or last run.
func (m *Manager) GetProgress() (downloaded, encoded, total int32) {
	return m.downloadedFiles.Load(), m.encodedFrames.Load(), m.totalFiles.Load()
}

// Run downloads the images of one sol and writes them as an animated GIF.
//
// Progress is reported in four numbered steps. On failure no output file is
// left behind. Images touch the disk only when Options.Save is set; frames
// are always encoded from memory.
func (m *Manager) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Output == "" {
		opts.Output = m.settings.OutputPath
	}
	if opts.FPS == 0 {
		opts.FPS = m.settings.FPS
	}
	if opts.FPS < 0 {
		return nil, fmt.Errorf("%w: got %d", model.ErrInvalidFPS, opts.FPS)
	}
	if !opts.Sol.Valid() {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidSol, int(opts.Sol))
	}

	if d := m.settings.Deadline.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	m.totalFiles.Store(0)
	m.downloadedFiles.Store(0)
	m.encodedFrames.Store(0)

	if opts.Sol.IsLatest() {
		m.step(1, "Retrieving latest sol")
	} else {
		m.step(1, fmt.Sprintf("Checking sol %d", int(opts.Sol)))
	}
	sol, err := m.feed.ResolveSol(ctx, opts.Sol)
	if err != nil {
		return nil, err
	}
	found := "found!"
	if opts.Sol.IsLatest() {
		found = sol.String()
	}
	m.progress(ProgressEvent{Kind: EventSol, Level: LevelSuccess, Sol: sol, Message: found})

	m.step(2, fmt.Sprintf("Retrieving image data for sol %d", int(sol)))
	refs, err := m.feed.FetchImageURLs(ctx, sol)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("sol %d: %w", int(sol), model.ErrNoFrames)
	}
	m.totalFiles.Store(int32(len(refs)))
	m.log(LevelInfo, "Found %d images", len(refs))

	m.step(3, fmt.Sprintf("Downloading %d images", len(refs)))
	images, err := m.downloader.DownloadAll(ctx, refs)
	if err != nil {
		return nil, err
	}

	res := &Result{Sol: sol, Output: opts.Output}
	if opts.Save {
		res.SaveDir = m.settings.SaveDir(opts.Output, int(sol))
		if err := m.save(ctx, res.SaveDir, images); err != nil {
			return nil, err
		}
	}

	m.step(4, fmt.Sprintf("Encoding %s at %d fps", opts.Output, opts.FPS))
	if err := m.encode(ctx, images, opts); err != nil {
		return nil, err
	}
	res.Frames = len(images)

	m.log(LevelSuccess, "Saved %d frames to %s", res.Frames, res.Output)
	if res.SaveDir != "" {
		m.log(LevelSuccess, "Images saved in %s", res.SaveDir)
	}
	return res, nil
}

// save writes the downloaded originals to dir.
func (m *Manager) save(ctx context.Context, dir string, images []model.ImageBytes) error {
	m.logger.DebugContext(ctx, "saving images", "dir", dir, "count", len(images))
	_, err := ioutils.StageImages(ctx, dir, images)
	return err
}

// encode streams images into opts.Output. A failed encode removes the file.
func (m *Manager) encode(ctx context.Context, images []model.ImageBytes, opts Options) (err error) {
	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := ioutils.EnsureDir(dir); err != nil {
			return fmt.Errorf("%w: creating %s: %w", model.ErrIO, dir, err)
		}
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrIO, err)
	}
	defer func() {
		if err == nil {
			return
		}
		_ = f.Close()
		if rmErr := os.Remove(opts.Output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			m.logger.Warn("failed to remove partial output", "path", opts.Output, "error", rmErr)
		}
	}()

	w := bufio.NewWriter(f)
	if err = m.pipeline.Encode(ctx, images, opts.FPS, model.DefaultCanvas, w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("%w: writing %s: %w", model.ErrIO, opts.Output, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", model.ErrIO, opts.Output, err)
	}
	return nil
}

func (m *Manager) step(n int, message string) {
	m.logger.Debug("step", "n", n, "of", TotalSteps, "message", message)
	m.progress(ProgressEvent{Kind: EventStep, Level: LevelInfo, Step: n, Steps: TotalSteps, Message: message})
}

func (m *Manager) log(level ProgressLevel, format string, args ...any) {
	m.progress(ProgressEvent{Kind: EventLog, Level: level, Message: fmt.Sprintf(format, args...)})
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onProgress(event)
}
