package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/ingenuity-dl/internal/model"
)

// fakeGetter answers with the URL as body after a per-URL delay.
type fakeGetter struct {
	delays   map[string]time.Duration
	failures map[string]error

	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeGetter) Get(ctx context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-time.After(f.delays[url]):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := f.failures[url]; err != nil {
		return nil, err
	}
	return []byte(url), nil
}

func makeRefs(n int) []model.ImageRef {
	refs := make([]model.ImageRef, n)
	for i := range refs {
		refs[i] = model.ImageRef{Index: i, URL: fmt.Sprintf("https://example.com/%d.jpg", i)}
	}
	return refs
}

func TestDownloader_PreservesOrderUnderJitter(t *testing.T) {
	refs := makeRefs(12)
	getter := &fakeGetter{delays: map[string]time.Duration{}}
	for i, ref := range refs {
		// later entries finish first
		getter.delays[ref.URL] = time.Duration(len(refs)-i) * 3 * time.Millisecond
	}

	var progress []int
	d := NewDownloader(getter, 4, WithDownloadProgress(func(done, total int) {
		assert.Equal(t, len(refs), total)
		progress = append(progress, done)
	}))

	out, err := d.DownloadAll(context.Background(), refs)
	require.NoError(t, err)
	require.Len(t, out, len(refs))

	for i, img := range out {
		assert.Equal(t, i, img.Index)
		assert.Equal(t, refs[i].URL, img.URL)
		assert.Equal(t, refs[i].URL, string(img.Data))
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, progress)
	assert.LessOrEqual(t, getter.peak.Load(), int32(4))
}

func TestDownloader_Concurrency(t *testing.T) {
	tests := []struct {
		limit    int
		expected int32
	}{
		{1, 1},
		{3, 3},
		{0, DefaultConcurrency},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit %d", tt.limit), func(t *testing.T) {
			refs := makeRefs(10)
			getter := &fakeGetter{delays: map[string]time.Duration{}}
			for _, ref := range refs {
				getter.delays[ref.URL] = 20 * time.Millisecond
			}

			_, err := NewDownloader(getter, tt.limit).DownloadAll(context.Background(), refs)
			require.NoError(t, err)
			// the bound is reached, never exceeded
			assert.Equal(t, tt.expected, getter.peak.Load())
			assert.Equal(t, int32(10), getter.calls.Load())
		})
	}
}

func TestDownloader_Empty(t *testing.T) {
	getter := &fakeGetter{}

	out, err := NewDownloader(getter, 4).DownloadAll(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Equal(t, int32(0), getter.calls.Load())
}

func TestDownloader_FailFast(t *testing.T) {
	refs := makeRefs(20)
	boom := errors.New("connection reset")
	getter := &fakeGetter{
		delays:   map[string]time.Duration{},
		failures: map[string]error{refs[2].URL: boom},
	}
	for _, ref := range refs {
		getter.delays[ref.URL] = 20 * time.Millisecond
	}
	getter.delays[refs[2].URL] = time.Millisecond

	out, err := NewDownloader(getter, 4).DownloadAll(context.Background(), refs)
	assert.Nil(t, out)

	var dlErr *model.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, 2, dlErr.Index)
	assert.Equal(t, refs[2].URL, dlErr.URL)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, model.ErrPartialDownload)

	// fetches not yet started when the failure hit are skipped
	assert.Less(t, getter.calls.Load(), int32(len(refs)))
}

func TestDownloader_Cancelled(t *testing.T) {
	refs := makeRefs(5)
	getter := &fakeGetter{delays: map[string]time.Duration{}}
	for _, ref := range refs {
		getter.delays[ref.URL] = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	go func() {
		time.Sleep(10 * time.Millisecond)
		once.Do(cancel)
	}()
	defer once.Do(cancel)

	_, err := NewDownloader(getter, 2).DownloadAll(ctx, refs)
	assert.ErrorIs(t, err, context.Canceled)
}
