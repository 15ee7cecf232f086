// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Staging downloaded images on disk
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//   - Format sniffing, decoding and canvas normalization
//
// # File Operations
//
//	// Write downloaded images to sol_54/0000.jpg, sol_54/0001.jpg, ...
//	paths, err := ioutils.StageImages(ctx, "sol_54", images)
//
// # Image Processing
//
// The ImageService turns encoded bytes into canvas-sized frames:
//
//	svc := ioutils.NewImageService(model.DefaultCanvas, false)
//
//	format, _ := svc.Sniff(data)       // "jpeg"
//	rgba, err := svc.Normalize(data)   // 640x480 *image.RGBA
//
// Decoders for JPEG, PNG, GIF, BMP, TIFF and WebP are registered on import.
package ioutils
