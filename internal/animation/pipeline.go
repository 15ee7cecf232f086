package animation

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	ioutils "github.com/handiism/ingenuity-dl/internal/io"
	"github.com/handiism/ingenuity-dl/internal/model"
)

// DefaultFrameBuffer is the number of decoded frames that may wait for the
// encoder.
const DefaultFrameBuffer = 2

// Pipeline decodes downloaded images and streams them into a GIF.
//
// Decoding runs in a producer goroutine and encoding in a consumer
// goroutine, joined by a bounded channel. Frames always reach the encoder in
// input order. The first failure in either stage cancels the other.
type Pipeline struct {
	buffer  int
	scale   bool
	logger  *slog.Logger
	onFrame func(done, total int)
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithFrameBuffer sets how many decoded frames may be queued. Zero makes the
// hand-off unbuffered.
func WithFrameBuffer(n int) PipelineOption {
	return func(p *Pipeline) {
		p.buffer = max(n, 0)
	}
}

// WithScaleToCanvas fits each image into the canvas instead of cropping it.
func WithScaleToCanvas(scale bool) PipelineOption {
	return func(p *Pipeline) {
		p.scale = scale
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithFrameProgress registers a callback invoked after each encoded frame.
// It runs on the encoder goroutine.
func WithFrameProgress(fn func(done, total int)) PipelineOption {
	return func(p *Pipeline) {
		p.onFrame = fn
	}
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		buffer: DefaultFrameBuffer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Encode writes images, in order, as an infinitely looping GIF to dst.
//
// Each frame is shown for round(100/fps) hundredths of a second. Errors:
//   - model.ErrInvalidFPS if fps <= 0
//   - model.ErrNoFrames if images is empty; nothing is written
//   - *model.FrameDecodeError naming the first image that fails to decode
//   - model.ErrEncode if writing to dst fails
//
// On error dst may hold a partial GIF.
func (p *Pipeline) Encode(ctx context.Context, images []model.ImageBytes, fps int, canvas model.Canvas, dst io.Writer) error {
	if fps <= 0 {
		return fmt.Errorf("%w: got %d", model.ErrInvalidFPS, fps)
	}
	if len(images) == 0 {
		return model.ErrNoFrames
	}

	svc := ioutils.NewImageService(canvas, p.scale)
	frames := make(chan model.Frame, p.buffer)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return p.produce(ctx, svc, images, fps, frames)
	})

	g.Go(func() error {
		enc := NewStreamEncoder(dst, svc.Canvas(),
			WithDelay(model.DelayCentiseconds(fps)),
		)
		return p.consume(ctx, enc, len(images), frames)
	})

	return g.Wait()
}

// produce decodes images in order and sends them to frames. frames is closed
// only after every image was sent, so the consumer can tell a complete run
// from an aborted one.
func (p *Pipeline) produce(ctx context.Context, svc *ioutils.ImageService, images []model.ImageBytes, fps int, frames chan<- model.Frame) error {
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}

		rgba, err := svc.Normalize(img.Data)
		if err != nil {
			return &model.FrameDecodeError{Index: img.Index, Err: err}
		}

		frame := model.Frame{
			Index:     img.Index,
			Image:     rgba,
			Timestamp: model.FrameTimestamp(i, fps),
		}

		select {
		case frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	close(frames)
	return nil
}

func (p *Pipeline) consume(ctx context.Context, enc *StreamEncoder, total int, frames <-chan model.Frame) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				if err := enc.Close(); err != nil {
					return fmt.Errorf("%w: finishing gif: %w", model.ErrEncode, err)
				}
				return nil
			}
			if err := enc.WriteFrame(frame.Image); err != nil {
				return fmt.Errorf("%w: frame %d: %w", model.ErrEncode, frame.Index, err)
			}
			p.logger.DebugContext(ctx, "frame encoded", "index", frame.Index, "timestamp", frame.Timestamp)
			if p.onFrame != nil {
				p.onFrame(enc.Frames(), total)
			}
		}
	}
}
