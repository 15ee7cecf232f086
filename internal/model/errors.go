package model

import (
	"errors"
	"fmt"
)

// FlightsReference lists the sols Ingenuity flew on.
const FlightsReference = "https://en.wikipedia.org/wiki/List_of_Ingenuity_flights"

var (
	// ErrRemoteUnavailable is returned when the feed or an image host cannot
	// be reached, or answers with a non-success status.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrMalformedResponse is returned when the feed JSON does not have the
	// expected shape or types.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrSolNotFound is matched by *SolNotFoundError.
	ErrSolNotFound = errors.New("sol not found")

	// ErrPartialDownload is matched by *DownloadError.
	ErrPartialDownload = errors.New("download failed")

	// ErrFrameDecode is matched by *FrameDecodeError.
	ErrFrameDecode = errors.New("frame decode failed")

	// ErrEncode is returned for encoder-level failures.
	ErrEncode = errors.New("encode failed")

	// ErrNoFrames is returned when asked to encode an empty image sequence.
	ErrNoFrames = fmt.Errorf("%w: no frames", ErrEncode)

	// ErrIO is returned when the output or staging files cannot be written.
	ErrIO = errors.New("i/o failure")

	// ErrInvalidSol is returned for negative sols other than LatestSol.
	ErrInvalidSol = errors.New("invalid sol")

	// ErrInvalidFPS is returned for a non-positive frame rate.
	ErrInvalidFPS = errors.New("fps must be positive")
)

// SolNotFoundError reports a sol the feed has no images for.
type SolNotFoundError struct {
	Sol Sol
}

func (e *SolNotFoundError) Error() string {
	return fmt.Sprintf("no data from sol %d. For a list of sols that Ingenuity flew on, check %s", e.Sol, FlightsReference)
}

// Is makes errors.Is(err, ErrSolNotFound) succeed.
func (e *SolNotFoundError) Is(target error) bool {
	return target == ErrSolNotFound
}

// DownloadError reports the failed fetch that aborted a batch.
type DownloadError struct {
	Index int
	URL   string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading image %d (%s): %v", e.Index, e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPartialDownload) succeed.
func (e *DownloadError) Is(target error) bool {
	return target == ErrPartialDownload
}

// FrameDecodeError reports an image that could not be decoded into a frame.
type FrameDecodeError struct {
	Index int
	Err   error
}

func (e *FrameDecodeError) Error() string {
	return fmt.Sprintf("decoding frame %d: %v", e.Index, e.Err)
}

func (e *FrameDecodeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFrameDecode) succeed.
func (e *FrameDecodeError) Is(target error) bool {
	return target == ErrFrameDecode
}
