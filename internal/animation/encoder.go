package animation

import (
	"compress/lzw"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/draw"

	"github.com/handiism/ingenuity-dl/internal/model"
)

const (
	blockIntroducer     = 0x21
	imageSeparator      = 0x2C
	trailer             = 0x3B
	graphicControlLabel = 0xF9
	applicationLabel    = 0xFF

	disposalNone = 0x01
)

// ErrClosed is returned when writing to a closed StreamEncoder.
var ErrClosed = errors.New("encoder closed")

// StreamEncoder writes an animated GIF one frame at a time.
//
// Unlike image/gif.EncodeAll, frames are never held in memory: each call to
// WriteFrame quantizes, compresses and writes its frame before returning.
// The header is written with the first frame, so an encoder that never
// receives a frame leaves dst untouched.
//
// Example usage:
//
//	enc := animation.NewStreamEncoder(w, model.DefaultCanvas, animation.WithDelay(33))
//	for _, img := range frames {
//	    if err := enc.WriteFrame(img); err != nil {
//	        return err
//	    }
//	}
//	return enc.Close()
type StreamEncoder struct {
	w      io.Writer
	canvas model.Canvas

	delay     int
	loopCount int
	quantizer draw.Quantizer

	frames int
	closed bool
	err    error
	buf    [16]byte
}

// EncoderOption configures a StreamEncoder.
type EncoderOption func(*StreamEncoder)

// WithDelay sets the per-frame delay in hundredths of a second.
func WithDelay(centiseconds int) EncoderOption {
	return func(e *StreamEncoder) {
		e.delay = max(centiseconds, 0)
	}
}

// WithLoopCount sets the NETSCAPE2.0 loop count. Zero loops forever.
func WithLoopCount(n int) EncoderOption {
	return func(e *StreamEncoder) {
		e.loopCount = n
	}
}

// NewStreamEncoder creates an encoder writing a canvas-sized GIF to w.
// An empty canvas falls back to model.DefaultCanvas.
func NewStreamEncoder(w io.Writer, canvas model.Canvas, opts ...EncoderOption) *StreamEncoder {
	if canvas.Empty() {
		canvas = model.DefaultCanvas
	}
	e := &StreamEncoder{
		w:         w,
		canvas:    canvas,
		quantizer: MedianCut{Step: 1},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Frames returns the number of frames written so far.
func (e *StreamEncoder) Frames() int {
	return e.frames
}

// WriteFrame appends img to the animation. img is drawn at the canvas origin
// and cropped to the canvas.
func (e *StreamEncoder) WriteFrame(img image.Image) error {
	if e.closed {
		return ErrClosed
	}
	if e.err != nil {
		return e.err
	}
	if e.frames == 0 {
		e.writeHeader()
	}

	pm := e.paletted(img)
	e.writeGraphicControl()
	e.writeImage(pm)
	if e.err != nil {
		return e.err
	}

	e.frames++
	return nil
}

// Close writes the GIF trailer. Closing an encoder with no frames fails with
// model.ErrNoFrames and writes nothing.
func (e *StreamEncoder) Close() error {
	if e.closed {
		return ErrClosed
	}
	e.closed = true
	if e.err != nil {
		return e.err
	}
	if e.frames == 0 {
		return model.ErrNoFrames
	}
	e.write(trailer)
	return e.err
}

func (e *StreamEncoder) paletted(img image.Image) *image.Paletted {
	bounds := e.canvas.Bounds()
	src := img.Bounds().Min

	pal := e.quantizer.Quantize(make(color.Palette, 0, 256), img)
	pm := image.NewPaletted(bounds, pal)
	draw.FloydSteinberg.Draw(pm, bounds, img, src)
	return pm
}

func (e *StreamEncoder) writeHeader() {
	e.writeString("GIF89a")

	// Logical screen descriptor without a global colour table.
	e.writeUint16(uint16(e.canvas.Width))
	e.writeUint16(uint16(e.canvas.Height))
	e.write(0x70, 0x00, 0x00)

	e.write(blockIntroducer, applicationLabel, 0x0B)
	e.writeString("NETSCAPE2.0")
	e.write(0x03, 0x01)
	e.writeUint16(uint16(e.loopCount))
	e.write(0x00)
}

func (e *StreamEncoder) writeGraphicControl() {
	e.write(blockIntroducer, graphicControlLabel, 0x04, disposalNone<<2)
	e.writeUint16(uint16(e.delay))
	e.write(0x00, 0x00)
}

func (e *StreamEncoder) writeImage(pm *image.Paletted) {
	bits := paletteBits(len(pm.Palette))

	e.write(imageSeparator)
	e.writeUint16(0)
	e.writeUint16(0)
	e.writeUint16(uint16(pm.Rect.Dx()))
	e.writeUint16(uint16(pm.Rect.Dy()))
	e.write(0x80 | byte(bits-1))

	table := make([]byte, 3*(1<<bits))
	for i, c := range pm.Palette {
		r, g, b, _ := c.RGBA()
		table[3*i], table[3*i+1], table[3*i+2] = uint8(r>>8), uint8(g>>8), uint8(b>>8)
	}
	e.write(table...)

	litWidth := max(bits, 2)
	e.write(byte(litWidth))
	if e.err != nil {
		return
	}

	bw := &blockWriter{w: e.w}
	lw := lzw.NewWriter(bw, lzw.LSB, litWidth)
	dx := pm.Rect.Dx()
	for y := 0; y < pm.Rect.Dy(); y++ {
		row := pm.Pix[y*pm.Stride : y*pm.Stride+dx]
		if _, err := lw.Write(row); err != nil {
			e.err = fmt.Errorf("compressing frame %d: %w", e.frames, err)
			return
		}
	}
	if err := lw.Close(); err != nil {
		e.err = fmt.Errorf("compressing frame %d: %w", e.frames, err)
		return
	}
	if err := bw.close(); err != nil {
		e.err = err
	}
}

// paletteBits returns the colour table size exponent for n colours, 1..8.
func paletteBits(n int) int {
	bits := 1
	for 1<<bits < n && bits < 8 {
		bits++
	}
	return bits
}

func (e *StreamEncoder) write(p ...byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *StreamEncoder) writeString(s string) {
	e.write([]byte(s)...)
}

func (e *StreamEncoder) writeUint16(v uint16) {
	e.buf[0], e.buf[1] = uint8(v), uint8(v>>8)
	e.write(e.buf[:2]...)
}

// blockWriter splits image data into GIF sub-blocks of at most 255 bytes.
type blockWriter struct {
	w   io.Writer
	buf [256]byte
	n   int
	err error
}

func (b *blockWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 && b.err == nil {
		n := copy(b.buf[1+b.n:], p)
		b.n += n
		written += n
		p = p[n:]
		if b.n == 255 {
			b.flush()
		}
	}
	return written, b.err
}

func (b *blockWriter) flush() {
	if b.n == 0 || b.err != nil {
		return
	}
	b.buf[0] = byte(b.n)
	_, b.err = b.w.Write(b.buf[:b.n+1])
	b.n = 0
}

// close flushes pending data and writes the block terminator.
func (b *blockWriter) close() error {
	b.flush()
	if b.err != nil {
		return b.err
	}
	_, b.err = b.w.Write([]byte{0x00})
	return b.err
}
