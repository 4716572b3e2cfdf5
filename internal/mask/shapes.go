package mask

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"
)

// FromBox selects every pixel of r that lies inside a width x height frame.
func FromBox(width, height int, r image.Rectangle) *Mask {
	m := New(width, height)
	r = r.Canon().Intersect(m.Extent())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Bits[y*width+x] = true
		}
	}
	return m
}

// FromPolygon rasterizes a closed lasso outline. Pixels at least half
// covered are selected.
func FromPolygon(width, height int, pts []image.Point) (*Mask, error) {
	if len(pts) < 3 {
		return New(width, height), nil
	}
	dc := gg.NewContext(width, height)
	defer dc.Close()

	dc.SetRGB(1, 1, 1)
	trace(dc, pts)
	dc.ClosePath()
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("fill polygon: %w", err)
	}
	return fromCoverage(dc.Image()), nil
}

// FromStroke rasterizes a freehand brush path of the given width with
// round caps and joins.
func FromStroke(width, height int, pts []image.Point, brush float64) (*Mask, error) {
	if len(pts) == 0 || brush <= 0 {
		return New(width, height), nil
	}
	dc := gg.NewContext(width, height)
	defer dc.Close()

	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(brush)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	if len(pts) == 1 {
		// a click without drag still paints a dot
		dc.DrawCircle(float64(pts[0].X)+0.5, float64(pts[0].Y)+0.5, brush/2)
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("fill dot: %w", err)
		}
		return fromCoverage(dc.Image()), nil
	}
	trace(dc, pts)
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("stroke path: %w", err)
	}
	return fromCoverage(dc.Image()), nil
}

// trace moves through pixel centers.
func trace(dc *gg.Context, pts []image.Point) {
	dc.MoveTo(float64(pts[0].X)+0.5, float64(pts[0].Y)+0.5)
	for _, p := range pts[1:] {
		dc.LineTo(float64(p.X)+0.5, float64(p.Y)+0.5)
	}
}

func fromCoverage(img image.Image) *Mask {
	b := img.Bounds()
	m := New(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			_, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			m.Bits[y*m.Width+x] = a >= 0x8000
		}
	}
	return m
}
