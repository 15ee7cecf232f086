package nasa

import (
	"context"
	"fmt"

	"github.com/handiism/ingenuity-dl/internal/model"
)

// ResolveSol turns the requested sol into one the feed has images for.
//
// For model.LatestSol the feed is asked for its single most recent image and
// that image's sol is returned. For an explicit sol the feed is queried for
// that sol; a null or absent num_images means there is no data, and a
// *model.SolNotFoundError is returned.
//
// Errors:
//   - model.ErrInvalidSol for negative sols other than LatestSol
//   - model.ErrRemoteUnavailable if the feed cannot be reached
//   - model.ErrMalformedResponse if the expected fields are missing
//   - *model.SolNotFoundError if the sol has no images
func (c *Client) ResolveSol(ctx context.Context, requested model.Sol) (model.Sol, error) {
	if !requested.Valid() {
		return 0, fmt.Errorf("%w: %d", model.ErrInvalidSol, int(requested))
	}
	if requested.IsLatest() {
		return c.latestSol(ctx)
	}
	return c.checkSol(ctx, requested)
}

func (c *Client) latestSol(ctx context.Context) (model.Sol, error) {
	feedURL, err := c.latestURL()
	if err != nil {
		return 0, err
	}

	feed, err := c.fetchFeed(ctx, feedURL)
	if err != nil {
		return 0, err
	}

	img, err := feed.Image(0)
	if err != nil {
		return 0, fmt.Errorf("%w: latest sol: %w", model.ErrMalformedResponse, err)
	}
	if img.Sol == nil {
		return 0, fmt.Errorf("%w: latest sol: images[0].sol missing", model.ErrMalformedResponse)
	}
	if *img.Sol < 0 {
		return 0, fmt.Errorf("%w: latest sol: negative sol %d", model.ErrMalformedResponse, *img.Sol)
	}

	sol := model.Sol(*img.Sol)
	c.logger.Debug("resolved latest sol", "sol", int(sol))
	return sol, nil
}

func (c *Client) checkSol(ctx context.Context, sol model.Sol) (model.Sol, error) {
	feedURL, err := c.solURL(sol)
	if err != nil {
		return 0, err
	}

	feed, err := c.fetchFeed(ctx, feedURL)
	if err != nil {
		return 0, err
	}

	if feed.NumImages == nil {
		return 0, &model.SolNotFoundError{Sol: sol}
	}

	c.logger.Debug("sol found", "sol", int(sol), "images", *feed.NumImages)
	return sol, nil
}
