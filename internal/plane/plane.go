// Package plane holds single-channel float32 rasters and hands them to
// OpenCV for filtering.
package plane

import (
	"image"
)

// Plane is a row-major float32 raster.
type Plane struct {
	Width  int
	Height int
	Pix    []float32
}

func New(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

// Filled returns a plane with every sample set to v.
func Filled(width, height int, v float32) *Plane {
	p := New(width, height)
	for i := range p.Pix {
		p.Pix[i] = v
	}
	return p
}

func (p *Plane) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

func (p *Plane) At(x, y int) float32 {
	return p.Pix[y*p.Width+x]
}

func (p *Plane) Set(x, y int, v float32) {
	p.Pix[y*p.Width+x] = v
}

// Crop copies the samples inside r. r must lie within the plane.
func (p *Plane) Crop(r image.Rectangle) *Plane {
	out := New(r.Dx(), r.Dy())
	for y := 0; y < out.Height; y++ {
		src := (r.Min.Y+y)*p.Width + r.Min.X
		copy(out.Pix[y*out.Width:(y+1)*out.Width], p.Pix[src:src+out.Width])
	}
	return out
}

// Sub returns a - b. Both planes must share an extent.
func Sub(a, b *Plane) *Plane {
	out := New(a.Width, a.Height)
	for i := range out.Pix {
		out.Pix[i] = a.Pix[i] - b.Pix[i]
	}
	return out
}

// Map applies fn to every sample and returns a new plane.
func (p *Plane) Map(fn func(float32) float32) *Plane {
	out := New(p.Width, p.Height)
	for i, v := range p.Pix {
		out.Pix[i] = fn(v)
	}
	return out
}

// Mean and variance of all samples.
func (p *Plane) Stats() (mean, variance float64) {
	if len(p.Pix) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range p.Pix {
		sum += float64(v)
	}
	mean = sum / float64(len(p.Pix))
	var sq float64
	for _, v := range p.Pix {
		d := float64(v) - mean
		sq += d * d
	}
	return mean, sq / float64(len(p.Pix))
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp limits every sample to [lo, hi].
func (p *Plane) Clamp(lo, hi float32) *Plane {
	return p.Map(func(v float32) float32 { return clamp32(v, lo, hi) })
}

// Gray renders v*scale+offset per sample as 8-bit gray, rounded and
// clamped.
func (p *Plane) Gray(scale, offset float32) *image.Gray {
	img := image.NewGray(p.Bounds())
	for i, v := range p.Pix {
		img.Pix[i] = uint8(clamp32(v*scale+offset, 0, 255) + 0.5)
	}
	return img
}
