package download

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/ingenuity-dl/internal/model"
)

// DefaultConcurrency is the number of simultaneous image fetches.
const DefaultConcurrency = 4

// Getter fetches a URL. *http.Client from internal/http satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Downloader fetches many images with a bounded number of requests in flight.
type Downloader struct {
	getter     Getter
	limit      int
	logger     *slog.Logger
	onProgress func(done, total int)

	mu sync.Mutex
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithDownloadProgress registers a callback invoked after each completed
// fetch. Calls are serialized and done increases by one each time.
func WithDownloadProgress(fn func(done, total int)) DownloaderOption {
	return func(d *Downloader) {
		d.onProgress = fn
	}
}

// WithDownloaderLogger sets the logger.
func WithDownloaderLogger(l *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDownloader creates a Downloader running at most limit fetches at once.
// A limit below 1 uses DefaultConcurrency.
func NewDownloader(getter Getter, limit int, opts ...DownloaderOption) *Downloader {
	if limit < 1 {
		limit = DefaultConcurrency
	}
	d := &Downloader{
		getter: getter,
		limit:  limit,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadAll fetches every ref and returns the bodies in the order of refs,
// whatever order the fetches complete in.
//
// The first failed fetch cancels the others and is returned as a
// *model.DownloadError; no partial result is returned. An empty refs yields
// an empty, non-nil slice without any request.
func (d *Downloader) DownloadAll(ctx context.Context, refs []model.ImageRef) ([]model.ImageBytes, error) {
	out := make([]model.ImageBytes, len(refs))
	if len(refs) == 0 {
		return out, nil
	}

	var done atomic.Int32
	total := len(refs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)

	for i, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			d.logger.DebugContext(gctx, "downloading image", "index", ref.Index, "url", ref.URL)

			data, err := d.getter.Get(gctx, ref.URL)
			if err != nil {
				return &model.DownloadError{Index: ref.Index, URL: ref.URL, Err: err}
			}
			out[i] = model.ImageBytes{Index: ref.Index, URL: ref.URL, Data: data}

			d.mu.Lock()
			n := done.Add(1)
			if d.onProgress != nil {
				d.onProgress(int(n), total)
			}
			d.mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// The loop stopped early without any fetch failing.
		return nil, err
	}
	return out, nil
}
