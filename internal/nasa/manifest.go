package nasa

import (
	"context"
	"fmt"

	"github.com/handiism/ingenuity-dl/internal/model"
)

// FetchImageURLs returns the full-resolution image references of a sol in
// manifest order.
//
// The manifest is all-or-nothing: if num_images is missing, or any of the
// first num_images entries lacks a string image_files.full_res, the whole
// call fails with model.ErrMalformedResponse naming the bad index.
//
// A sol with num_images = 0 yields an empty, non-nil slice.
func (c *Client) FetchImageURLs(ctx context.Context, sol model.Sol) ([]model.ImageRef, error) {
	if sol.IsLatest() || !sol.Valid() {
		return nil, fmt.Errorf("%w: manifest needs a resolved sol, got %s", model.ErrInvalidSol, sol)
	}

	feedURL, err := c.solURL(sol)
	if err != nil {
		return nil, err
	}

	feed, err := c.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	if feed.NumImages == nil {
		return nil, fmt.Errorf("%w: sol %d: num_images missing", model.ErrMalformedResponse, int(sol))
	}
	n := *feed.NumImages
	if n < 0 {
		return nil, fmt.Errorf("%w: sol %d: negative num_images %d", model.ErrMalformedResponse, int(sol), n)
	}

	refs := make([]model.ImageRef, 0, n)
	for i := 0; i < n; i++ {
		img, err := feed.Image(i)
		if err != nil {
			return nil, fmt.Errorf("%w: sol %d: %w", model.ErrMalformedResponse, int(sol), err)
		}
		fullRes, err := img.FullResURL()
		if err != nil {
			return nil, fmt.Errorf("%w: sol %d: images[%d]: %w", model.ErrMalformedResponse, int(sol), i, err)
		}
		refs = append(refs, model.ImageRef{Index: i, URL: fullRes})
	}

	c.logger.Debug("fetched manifest", "sol", int(sol), "images", len(refs))
	return refs, nil
}
