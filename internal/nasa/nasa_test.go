package nasa

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ihttp "github.com/handiism/ingenuity-dl/internal/http"
	"github.com/handiism/ingenuity-dl/internal/model"
)

// feedServer answers feed queries: "latest" for num=1 queries, and the
// entry of bySol for sol=<S> queries.
type feedServer struct {
	*httptest.Server
	calls  atomic.Int32
	latest string
	bySol  map[string]string
	status int
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{bySol: map[string]string{}}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.calls.Add(1)
		if fs.status != 0 {
			w.WriteHeader(fs.status)
			return
		}
		q := r.URL.Query()
		assert.Equal(t, "raw_images", q.Get("feed"))
		assert.Equal(t, "ingenuity", q.Get("category"))
		assert.Equal(t, "json", q.Get("feedtype"))

		if q.Get("num") == "1" {
			_, _ = w.Write([]byte(fs.latest))
			return
		}
		body, ok := fs.bySol[q.Get("sol")]
		if !ok {
			body = `{"num_images": null, "images": []}`
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *feedServer) client(opts ...Option) *Client {
	opts = append([]Option{WithFeedURL(fs.URL + "/rss/api/")}, opts...)
	return NewClient(ihttp.NewClient(), opts...)
}

func TestResolveSol_Latest(t *testing.T) {
	fs := newFeedServer(t)
	fs.latest = `{"num_images": 1, "images": [{"sol": 1017, "image_files": {"full_res": "https://x/a.png"}}]}`

	sol, err := fs.client().ResolveSol(context.Background(), model.LatestSol)
	require.NoError(t, err)
	assert.Equal(t, model.Sol(1017), sol)
}

func TestResolveSol_LatestErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr error
	}{
		{"empty images", `{"num_images": 0, "images": []}`, 0, model.ErrMalformedResponse},
		{"missing sol", `{"num_images": 1, "images": [{"image_files": {}}]}`, 0, model.ErrMalformedResponse},
		{"sol wrong type", `{"num_images": 1, "images": [{"sol": "ten"}]}`, 0, model.ErrMalformedResponse},
		{"not json", `<html>maintenance</html>`, 0, model.ErrMalformedResponse},
		{"server error", ``, http.StatusBadGateway, model.ErrRemoteUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFeedServer(t)
			fs.latest = tt.body
			fs.status = tt.status

			_, err := fs.client().ResolveSol(context.Background(), model.LatestSol)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolveSol_Explicit(t *testing.T) {
	fs := newFeedServer(t)
	fs.bySol["54"] = `{"num_images": 3, "images": []}`
	fs.bySol["55"] = `{"num_images": 0, "images": []}`
	fs.bySol["56"] = `{"images": []}`
	fs.bySol["57"] = `{"num_images": "many", "images": []}`

	c := fs.client()
	ctx := context.Background()

	sol, err := c.ResolveSol(ctx, 54)
	require.NoError(t, err)
	assert.Equal(t, model.Sol(54), sol)

	// zero images is still "found"; the encoder rejects the empty sequence later
	sol, err = c.ResolveSol(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, model.Sol(55), sol)

	_, err = c.ResolveSol(ctx, 56)
	assert.ErrorIs(t, err, model.ErrSolNotFound)

	_, err = c.ResolveSol(ctx, 57)
	assert.ErrorIs(t, err, model.ErrMalformedResponse)
}

func TestResolveSol_NotFoundCarriesSol(t *testing.T) {
	fs := newFeedServer(t)

	_, err := fs.client().ResolveSol(context.Background(), 9999)

	var notFound *model.SolNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, model.Sol(9999), notFound.Sol)
	assert.Contains(t, err.Error(), model.FlightsReference)
}

func TestResolveSol_InvalidSol(t *testing.T) {
	fs := newFeedServer(t)

	_, err := fs.client().ResolveSol(context.Background(), -5)
	assert.ErrorIs(t, err, model.ErrInvalidSol)
	assert.Equal(t, int32(0), fs.calls.Load())
}

func TestFetchImageURLs(t *testing.T) {
	fs := newFeedServer(t)
	fs.bySol["100"] = `{"num_images": 3, "images": [
		{"sol": 100, "image_files": {"full_res": "https://x/a.jpg", "small": "https://x/a_s.jpg"}},
		{"sol": 100, "image_files": {"full_res": "https://x/b.jpg"}},
		{"sol": 100, "image_files": {"full_res": "https://x/c.jpg"}}
	]}`

	refs, err := fs.client().FetchImageURLs(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, []model.ImageRef{
		{Index: 0, URL: "https://x/a.jpg"},
		{Index: 1, URL: "https://x/b.jpg"},
		{Index: 2, URL: "https://x/c.jpg"},
	}, refs)
}

func TestFetchImageURLs_Empty(t *testing.T) {
	fs := newFeedServer(t)
	fs.bySol["3"] = `{"num_images": 0, "images": []}`

	refs, err := fs.client().FetchImageURLs(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
}

func TestFetchImageURLs_Malformed(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantContain string
	}{
		{
			name:        "missing count",
			body:        `{"images": [{"image_files": {"full_res": "https://x/a.jpg"}}]}`,
			wantContain: "num_images",
		},
		{
			name:        "missing url at index 1",
			body:        `{"num_images": 2, "images": [{"image_files": {"full_res": "https://x/a.jpg"}}, {"image_files": {}}]}`,
			wantContain: "images[1]",
		},
		{
			name:        "url wrong type",
			body:        `{"num_images": 1, "images": [{"image_files": {"full_res": 12}}]}`,
			wantContain: "images[0]",
		},
		{
			name:        "count larger than entries",
			body:        `{"num_images": 2, "images": [{"image_files": {"full_res": "https://x/a.jpg"}}]}`,
			wantContain: "images[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFeedServer(t)
			fs.bySol["7"] = tt.body

			refs, err := fs.client().FetchImageURLs(context.Background(), 7)
			assert.Nil(t, refs)
			assert.ErrorIs(t, err, model.ErrMalformedResponse)
			assert.Contains(t, err.Error(), tt.wantContain)
		})
	}
}

func TestFetchImageURLs_RequiresResolvedSol(t *testing.T) {
	fs := newFeedServer(t)

	_, err := fs.client().FetchImageURLs(context.Background(), model.LatestSol)
	assert.ErrorIs(t, err, model.ErrInvalidSol)
}

func TestClient_CacheSharesSolQuery(t *testing.T) {
	body := `{"num_images": 1, "images": [{"sol": 12, "image_files": {"full_res": "https://x/a.jpg"}}]}`

	t.Run("cached", func(t *testing.T) {
		fs := newFeedServer(t)
		fs.bySol["12"] = body
		c := fs.client(WithCache(4, time.Minute))

		_, err := c.ResolveSol(context.Background(), 12)
		require.NoError(t, err)
		_, err = c.FetchImageURLs(context.Background(), 12)
		require.NoError(t, err)
		assert.Equal(t, int32(1), fs.calls.Load())
	})

	t.Run("uncached", func(t *testing.T) {
		fs := newFeedServer(t)
		fs.bySol["12"] = body
		c := fs.client(WithCache(4, 0))

		_, err := c.ResolveSol(context.Background(), 12)
		require.NoError(t, err)
		_, err = c.FetchImageURLs(context.Background(), 12)
		require.NoError(t, err)
		assert.Equal(t, int32(2), fs.calls.Load())
	})
}

func TestClient_QueryURL(t *testing.T) {
	c := NewClient(nil, WithFeedURL("https://example.com/rss/api/?existing=1"), WithCategory("mars2020"))

	raw, err := c.solURL(42)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/rss/api/", u.Path)
	assert.Equal(t, "1", q.Get("existing"))
	assert.Equal(t, "mars2020", q.Get("category"))
	assert.Equal(t, "42", q.Get("sol"))
	assert.Equal(t, "raw_images", q.Get("feed"))
}

func TestClient_CancelledContext(t *testing.T) {
	fs := newFeedServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.client().ResolveSol(ctx, model.LatestSol)
	assert.ErrorIs(t, err, model.ErrRemoteUnavailable)
	assert.True(t, errors.Is(err, context.Canceled))
}
