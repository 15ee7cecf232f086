package dto

import (
	"encoding/json"
	"fmt"
)

// JSONFeed is one response of the raw images feed.
//
// Images are kept raw so that each entry can be decoded on its own and a bad
// entry can be reported with its index.
type JSONFeed struct {
	// NumImages is nil when the feed has no data for the requested sol.
	NumImages *int              `json:"num_images"`
	Images    []json.RawMessage `json:"images"`
}

// JSONImage is one entry of JSONFeed.Images.
type JSONImage struct {
	Sol        *int            `json:"sol"`
	ImageFiles *JSONImageFiles `json:"image_files"`
}

// JSONImageFiles lists the renditions of an image.
type JSONImageFiles struct {
	FullRes *string `json:"full_res"`
}

// ParseFeed decodes a feed response body.
func ParseFeed(data []byte) (*JSONFeed, error) {
	var feed JSONFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

// Image decodes entry i of the feed.
func (f *JSONFeed) Image(i int) (*JSONImage, error) {
	if i < 0 || i >= len(f.Images) {
		return nil, fmt.Errorf("images[%d] missing (feed has %d entries)", i, len(f.Images))
	}
	var img JSONImage
	if err := json.Unmarshal(f.Images[i], &img); err != nil {
		return nil, fmt.Errorf("images[%d]: %w", i, err)
	}
	return &img, nil
}

// FullResURL returns the full-resolution URL of the entry.
func (ji *JSONImage) FullResURL() (string, error) {
	if ji.ImageFiles == nil || ji.ImageFiles.FullRes == nil {
		return "", fmt.Errorf("image_files.full_res missing")
	}
	if *ji.ImageFiles.FullRes == "" {
		return "", fmt.Errorf("image_files.full_res empty")
	}
	return *ji.ImageFiles.FullRes, nil
}
