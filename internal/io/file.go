package ioutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/handiism/ingenuity-dl/internal/model"
)

var (
	invalidNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots     = regexp.MustCompile(`\.+$`)
	runsOfSpace      = regexp.MustCompile(`\s+`)
)

// WriteFile writes data to a file, creating it if necessary.
//
// The file is created with mode 0644. If the file already exists,
// it is truncated before writing. Returns ctx.Err() without touching the
// file system if ctx is already done.
//
// Example:
//
//	err := WriteFile(ctx, "sol_54/0000.png", data)
func WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("sol: 54/frames") // Returns "sol_ 54_frames"
func SanitizeFileName(name string) string {
	name = invalidNameChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = runsOfSpace.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// StagedName returns the file name an image is staged under: its zero-padded
// manifest index followed by the extension of its URL, e.g. "0007.jpg".
func StagedName(img model.ImageBytes) string {
	ext := model.ImageRef{Index: img.Index, URL: img.URL}.Ext()
	return SanitizeFileName(fmt.Sprintf("%04d%s", img.Index, strings.ToLower(ext)))
}

// StageImages writes every image into dir, which is created if needed.
// Files are named by StagedName so a directory listing keeps manifest order.
//
// Returns the written paths in input order. Any failure is wrapped with
// model.ErrIO.
func StageImages(ctx context.Context, dir string, images []model.ImageBytes) ([]string, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", model.ErrIO, dir, err)
	}

	paths := make([]string, 0, len(images))
	for _, img := range images {
		p := filepath.Join(dir, StagedName(img))
		if err := WriteFile(ctx, p, img.Data); err != nil {
			return nil, fmt.Errorf("%w: staging image %d: %w", model.ErrIO, img.Index, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

