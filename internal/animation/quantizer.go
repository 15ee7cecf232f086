package animation

import (
	"image"
	"image/color"
	"sort"
)

// MedianCut builds a palette by recursive median cut over a histogram of the
// exact 24-bit colours of an image. It implements draw.Quantizer.
//
// An image with no more distinct colours than the palette can hold gets
// exactly those colours back, so 8-bit grayscale frames keep all 256 levels.
// The result depends only on the image pixels, so the same input always
// yields the same palette in the same order.
type MedianCut struct {
	// Step samples every Step-th pixel of each row. Values below 1 sample
	// every pixel.
	Step int
}

type colorBucket struct {
	key   uint32
	count uint64
	sum   [3]uint64
}

// mean returns the average colour of the pixels in the bucket.
func (b *colorBucket) mean() color.RGBA {
	return color.RGBA{
		R: uint8((b.sum[0] + b.count/2) / b.count),
		G: uint8((b.sum[1] + b.count/2) / b.count),
		B: uint8((b.sum[2] + b.count/2) / b.count),
		A: 0xff,
	}
}

func (b *colorBucket) channel(c int) uint16 {
	return uint16(b.key>>(uint(2-c)*8)) & 0xff
}

type colorBox struct {
	buckets []colorBucket
	count   uint64

	// axis and spread cache widest().
	axis   int
	spread uint16
}

func newColorBox(buckets []colorBucket) colorBox {
	box := colorBox{buckets: buckets}
	for i := range buckets {
		box.count += buckets[i].count
	}
	box.axis, box.spread = box.widest()
	return box
}

// widest returns the channel with the largest range and that range.
func (box *colorBox) widest() (int, uint16) {
	bestChannel, bestRange := 0, uint16(0)
	for c := 0; c < 3; c++ {
		lo, hi := uint16(0xff), uint16(0)
		for i := range box.buckets {
			v := box.buckets[i].channel(c)
			lo = min(lo, v)
			hi = max(hi, v)
		}
		if hi-lo > bestRange {
			bestChannel, bestRange = c, hi-lo
		}
	}
	return bestChannel, bestRange
}

// split divides the box at the pixel median of channel c.
func (box *colorBox) split(c int) (colorBox, colorBox) {
	sort.Slice(box.buckets, func(i, j int) bool {
		vi, vj := box.buckets[i].channel(c), box.buckets[j].channel(c)
		if vi != vj {
			return vi < vj
		}
		return box.buckets[i].key < box.buckets[j].key
	})

	half := box.count / 2
	var acc uint64
	cut := len(box.buckets) - 1
	for i := range box.buckets[:len(box.buckets)-1] {
		acc += box.buckets[i].count
		if acc >= half {
			cut = i + 1
			break
		}
	}

	return newColorBox(box.buckets[:cut]), newColorBox(box.buckets[cut:])
}

// Quantize appends up to cap(p)-len(p) colours to p, or up to 256 when p has
// no spare capacity.
func (q MedianCut) Quantize(p color.Palette, m image.Image) color.Palette {
	maxColors := cap(p) - len(p)
	if maxColors <= 0 {
		maxColors = 256
	}

	buckets := q.histogram(m)
	if len(buckets) == 0 {
		return append(p, color.RGBA{A: 0xff})
	}
	if len(buckets) <= maxColors {
		for i := range buckets {
			p = append(p, buckets[i].mean())
		}
		return p
	}

	boxes := []colorBox{newColorBox(buckets)}

	for len(boxes) < maxColors {
		pick := -1
		for i := range boxes {
			if len(boxes[i].buckets) < 2 {
				continue
			}
			if pick < 0 || boxes[i].spread > boxes[pick].spread ||
				(boxes[i].spread == boxes[pick].spread && boxes[i].count > boxes[pick].count) {
				pick = i
			}
		}
		if pick < 0 {
			break
		}
		lo, hi := boxes[pick].split(boxes[pick].axis)
		boxes[pick] = lo
		boxes = append(boxes, hi)
	}

	for i := range boxes {
		merged := colorBucket{}
		for _, b := range boxes[i].buckets {
			merged.count += b.count
			merged.sum[0] += b.sum[0]
			merged.sum[1] += b.sum[1]
			merged.sum[2] += b.sum[2]
		}
		p = append(p, merged.mean())
	}
	return p
}

// histogram counts pixels per 24-bit colour. Buckets are sorted by colour.
func (q MedianCut) histogram(m image.Image) []colorBucket {
	step := max(q.Step, 1)
	index := make(map[uint32]int)
	var buckets []colorBucket

	add := func(r, g, b uint8) {
		key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, colorBucket{key: key})
		}
		buckets[i].count++
		buckets[i].sum[0] += uint64(r)
		buckets[i].sum[1] += uint64(g)
		buckets[i].sum[2] += uint64(b)
	}

	bounds := m.Bounds()
	switch src := m.(type) {
	case *image.RGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := src.Pix[src.PixOffset(bounds.Min.X, y):]
			for x := 0; x < bounds.Dx(); x += step {
				add(row[4*x], row[4*x+1], row[4*x+2])
			}
		}
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := src.Pix[src.PixOffset(bounds.Min.X, y):]
			for x := 0; x < bounds.Dx(); x += step {
				add(row[x], row[x], row[x])
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x += step {
				c := color.RGBAModel.Convert(m.At(x, y)).(color.RGBA)
				add(c.R, c.G, c.B)
			}
		}
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].key < buckets[j].key
	})
	return buckets
}
