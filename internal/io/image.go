package ioutils

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration

	"github.com/handiism/ingenuity-dl/internal/model"
)

// ErrUnknownFormat is returned when no registered decoder recognizes the data.
var ErrUnknownFormat = errors.New("unknown image format")

// ImageService decodes downloaded images and normalizes them to the canvas.
//
// By default the decoded image is drawn unscaled onto the canvas, anchored at
// the top-left corner: larger images are cropped and smaller ones are padded
// with opaque black. With scaling enabled the image is fitted into the
// canvas keeping its aspect ratio.
//
// Example usage:
//
//	svc := NewImageService(model.DefaultCanvas, false)
//
//	format, err := svc.Sniff(data) // "jpeg", "png", ...
//	frame, err := svc.Normalize(data)
type ImageService struct {
	canvas model.Canvas
	scale  bool
}

// NewImageService creates an ImageService for the given canvas.
// An empty canvas falls back to model.DefaultCanvas.
func NewImageService(canvas model.Canvas, scale bool) *ImageService {
	if canvas.Empty() {
		canvas = model.DefaultCanvas
	}
	return &ImageService{canvas: canvas, scale: scale}
}

// Canvas returns the canvas frames are normalized to.
func (s *ImageService) Canvas() model.Canvas {
	return s.canvas
}

// Sniff returns the registered format name of data without decoding pixels.
func (s *ImageService) Sniff(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return "", ErrUnknownFormat
		}
		return "", err
	}
	return format, nil
}

// Decode sniffs and decodes data.
func (s *ImageService) Decode(data []byte) (image.Image, string, error) {
	if _, err := s.Sniff(data); err != nil {
		return nil, "", err
	}
	return image.Decode(bytes.NewReader(data))
}

// Normalize decodes data and returns it drawn onto a fresh canvas.
func (s *ImageService) Normalize(data []byte) (*image.RGBA, error) {
	img, _, err := s.Decode(data)
	if err != nil {
		return nil, err
	}
	return s.Fit(img), nil
}

// Fit draws img onto a fresh canvas-sized RGBA image with an opaque black
// background. The result is always fully opaque.
func (s *ImageService) Fit(img image.Image) *image.RGBA {
	dst := image.NewRGBA(s.canvas.Bounds())
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	src := img.Bounds()

	if !s.scale {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Over)
		return dst
	}

	width, height := fitWithin(src.Dx(), src.Dy(), s.canvas.Width, s.canvas.Height)
	target := image.Rect(0, 0, width, height)
	draw.CatmullRom.Scale(dst, target, img, src, draw.Over, nil)
	return dst
}

// fitWithin scales width x height to fit maxWidth x maxHeight, keeping the
// aspect ratio. Images already inside the bounds are returned unchanged.
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		// Height is the limiting factor
		return max(1, int(float64(maxHeight)*ratio)), maxHeight
	}
	// Width is the limiting factor
	return maxWidth, max(1, int(float64(maxWidth)/ratio))
}
