package model

import (
	"image"
	"math"
	"net/url"
	"path"
	"time"
)

// ImageRef is one manifest entry.
//
// Index is the entry's position in the manifest, which is also its playback
// position in the final animation. Every later stage keys its output by
// Index, never by completion order.
type ImageRef struct {
	// Index is the zero-based manifest position.
	Index int

	// URL points at the full-resolution image.
	URL string
}

// Ext returns the file extension of the referenced image, including the dot.
// Query strings are ignored. Returns ".img" when the URL has no extension.
func (r ImageRef) Ext() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ".img"
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return ".img"
}

// ImageBytes holds the raw encoded bytes of one downloaded image.
type ImageBytes struct {
	// Index matches the originating ImageRef.Index.
	Index int

	// URL is the address the bytes were fetched from.
	URL string

	// Data is the undecoded response body.
	Data []byte
}

// Frame is a decoded image normalized to the output canvas.
type Frame struct {
	// Index matches the originating ImageRef.Index.
	Index int

	// Image has exactly the canvas bounds, anchored at the origin.
	Image *image.RGBA

	// Timestamp is the presentation time of the frame, Index/fps seconds.
	Timestamp time.Duration
}

// Canvas is the fixed pixel size every frame is encoded at.
type Canvas struct {
	Width  int
	Height int
}

// DefaultCanvas is the 640x480 output canvas.
var DefaultCanvas = Canvas{Width: 640, Height: 480}

// Bounds returns the canvas rectangle anchored at the origin.
func (c Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.Width, c.Height)
}

// Empty reports whether the canvas has no pixels.
func (c Canvas) Empty() bool {
	return c.Width <= 0 || c.Height <= 0
}

// FrameTimestamp returns the presentation time of the frame at index when
// playing at fps frames per second.
func FrameTimestamp(index, fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(index) * time.Second / time.Duration(fps)
}

// DelayCentiseconds converts fps into a GIF frame delay.
// GIF delays are whole hundredths of a second; the result is never below 1.
func DelayCentiseconds(fps int) int {
	if fps <= 0 {
		return 0
	}
	d := int(math.Round(100 / float64(fps)))
	if d < 1 {
		d = 1
	}
	return d
}
