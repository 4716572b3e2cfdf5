// Package mask holds boolean region masks and the conditioning steps that
// turn a raw selection into something safe to paint through.
package mask

import (
	"crypto/sha256"
	"errors"
	"image"
	"image/color"
	"sync"
)

// ErrShapeMismatch is returned when two rasters that must share an extent
// do not.
var ErrShapeMismatch = errors.New("shape mismatch")

// Mask is a row-major boolean raster. Treat a Mask as immutable once it
// has been handed to another package; every operation here returns a new
// one.
type Mask struct {
	Width  int
	Height int
	Bits   []bool

	digestOnce sync.Once
	digest     [sha256.Size]byte
}

func New(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

// Full returns a mask with every pixel selected.
func Full(width, height int) *Mask {
	m := New(width, height)
	for i := range m.Bits {
		m.Bits[i] = true
	}
	return m
}

func (m *Mask) Extent() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// SameShape reports whether m covers exactly the rectangle r.
func (m *Mask) SameShape(r image.Rectangle) bool {
	return m.Width == r.Dx() && m.Height == r.Dy()
}

// At reports whether (x, y) is selected. Points outside the mask are not.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.Width+x] = v
}

// Count returns the number of selected pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Empty reports whether nothing is selected. Painting an empty mask is a
// no-op.
func (m *Mask) Empty() bool {
	for _, b := range m.Bits {
		if b {
			return false
		}
	}
	return true
}

// Bounds returns the smallest rectangle containing every selected pixel,
// or the zero rectangle for an empty mask.
func (m *Mask) Bounds() image.Rectangle {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.Bits[y*m.Width : (y+1)*m.Width]
		for x, b := range row {
			if !b {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Crop copies the pixels inside r into a new mask.
func (m *Mask) Crop(r image.Rectangle) *Mask {
	out := New(r.Dx(), r.Dy())
	for y := 0; y < out.Height; y++ {
		src := (r.Min.Y+y)*m.Width + r.Min.X
		copy(out.Bits[y*out.Width:(y+1)*out.Width], m.Bits[src:src+out.Width])
	}
	return out
}

func (m *Mask) Clone() *Mask {
	out := New(m.Width, m.Height)
	copy(out.Bits, m.Bits)
	return out
}

func (m *Mask) Equal(o *Mask) bool {
	if m.Width != o.Width || m.Height != o.Height {
		return false
	}
	for i := range m.Bits {
		if m.Bits[i] != o.Bits[i] {
			return false
		}
	}
	return true
}

// Image renders the mask as 8-bit gray: 255 selected, 0 not.
func (m *Mask) Image() *image.Gray {
	img := image.NewGray(m.Extent())
	for i, b := range m.Bits {
		if b {
			img.Pix[i] = 0xFF
		}
	}
	return img
}

// FromImage thresholds any image into a mask. A pixel is selected when it
// is at least half opaque and at least half bright, so both alpha masks
// and black/white masks from a segmenter work.
func FromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := New(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			gray := (299*uint32(c.R) + 587*uint32(c.G) + 114*uint32(c.B)) / 1000
			m.Bits[y*m.Width+x] = c.A >= 0x80 && gray >= 0x80
		}
	}
	return m
}

// Digest is a content hash of the mask, computed once. Edits made after
// the first call are not reflected.
func (m *Mask) Digest() [sha256.Size]byte {
	m.digestOnce.Do(func() {
		h := sha256.New()
		var hdr [8]byte
		for i, v := range []int{m.Width, m.Height} {
			hdr[i*4] = byte(v >> 24)
			hdr[i*4+1] = byte(v >> 16)
			hdr[i*4+2] = byte(v >> 8)
			hdr[i*4+3] = byte(v)
		}
		h.Write(hdr[:])

		// pack 8 pixels per byte
		packed := make([]byte, (len(m.Bits)+7)/8)
		for i, b := range m.Bits {
			if b {
				packed[i/8] |= 1 << (i % 8)
			}
		}
		h.Write(packed)
		copy(m.digest[:], h.Sum(nil))
	})
	return m.digest
}
