// Package lighting splits a photo into the luminance, shadow and surface
// texture maps the paint compositor multiplies back into new paint.
package lighting

import (
	"image"

	"github.com/erinpentecost/wallpaint/internal/hue"
	"github.com/erinpentecost/wallpaint/internal/plane"
)

const (
	// TextureKernel is the Gaussian kernel size of the high-pass split.
	// Detail finer than this survives into Texture.
	TextureKernel = 21

	shadowOffset = 0.2
	shadowGain   = 2.0
)

// Maps is the lighting decomposition of exactly one image.
type Maps struct {
	Width  int
	Height int
	// Luminance is the raw Lab lightness, 0..255.
	Luminance *plane.Plane
	// Normalized is Luminance scaled to 0..1.
	Normalized *plane.Plane
	// Shadow is 0 in lit areas and 1 in the deepest shadow.
	Shadow *plane.Plane
	// Texture is the signed high-frequency residual of Luminance.
	Texture *plane.Plane
}

// Decompose computes the lighting maps for img. It never fails for a
// valid buffer.
func Decompose(img *image.RGBA) *Maps {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	lum := plane.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lum.Set(x, y, float32(hue.ToLab(img.RGBAAt(b.Min.X+x, b.Min.Y+y)).L))
		}
	}
	return FromLuminance(lum)
}

// FromLuminance builds the remaining maps from a 0..255 lightness plane.
func FromLuminance(lum *plane.Plane) *Maps {
	norm := lum.Map(func(v float32) float32 { return v / 255 })
	return &Maps{
		Width:      lum.Width,
		Height:     lum.Height,
		Luminance:  lum,
		Normalized: norm,
		Shadow:     norm.Map(ShadowStrength),
		Texture:    plane.Sub(lum, plane.GaussianBlur(lum, TextureKernel)),
	}
}

// ShadowStrength maps normalized luminance to shadow strength: zero above
// 80% luminance, full strength at 30% and below.
func ShadowStrength(norm float32) float32 {
	s := (1 - norm - shadowOffset) * shadowGain
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func (m *Maps) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Matches reports whether the maps were computed for an image of the
// given extent.
func (m *Maps) Matches(r image.Rectangle) bool {
	return m != nil && m.Width == r.Dx() && m.Height == r.Dy()
}
