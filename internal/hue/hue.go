package hue

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Neutral is the 8-bit encoding of zero chroma on the a and b axes.
const Neutral = 128.0

// Lab represents a color in 8-bit CIELAB (D65).
// L is 0–255 (L* scaled by 255/100), A and B are centered on 128.
type Lab struct {
	L, A, B float64
}

// ToLab converts a color.Color to Lab.
func ToLab(c color.Color) Lab {
	r16, g16, b16, _ := c.RGBA()

	// Convert 16-bit RGBA from image to normalized 0–1 floats
	col := colorful.Color{
		R: float64(r16) / 65535.0,
		G: float64(g16) / 65535.0,
		B: float64(b16) / 65535.0,
	}
	return fromColorful(col)
}

// FromRGB converts an 8-bit sRGB triple to Lab.
func FromRGB(r, g, b uint8) Lab {
	return fromColorful(colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	})
}

func fromColorful(col colorful.Color) Lab {
	l, a, b := col.Lab()
	return Lab{
		L: l * 255.0,
		A: a*100.0 + Neutral,
		B: b*100.0 + Neutral,
	}
}

// RGBA converts the Lab value back to an opaque sRGB color.
// Out of gamut values are clamped.
func (c Lab) RGBA() color.RGBA {
	col := colorful.Lab(c.L/255.0, (c.A-Neutral)/100.0, (c.B-Neutral)/100.0).Clamped()
	r, g, b := col.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Chroma is the distance from neutral gray on the a/b plane.
func (c Lab) Chroma() float64 {
	return math.Hypot(c.A-Neutral, c.B-Neutral)
}

// ParseHex reads a "#RRGGBB" (or "RRGGBB") string.
func ParseHex(s string) (Lab, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	col, err := colorful.Hex(s)
	if err != nil {
		return Lab{}, fmt.Errorf("parse hex color %q: %w", s, err)
	}
	return fromColorful(col), nil
}

// Hex formats the color as "#RRGGBB" after gamut clamping.
func (c Lab) Hex() string {
	rgb := c.RGBA()
	return fmt.Sprintf("#%02X%02X%02X", rgb.R, rgb.G, rgb.B)
}

// MeanChroma calculates the average a and b channels of an image.
func MeanChroma(img image.Image) (a, b float64) {
	var sumA, sumB float64
	count := 0

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			lab := ToLab(img.At(x, y))
			sumA += lab.A
			sumB += lab.B
			count++
		}
	}

	if count == 0 {
		return Neutral, Neutral
	}
	return sumA / float64(count), sumB / float64(count)
}

// WhiteBalance applies a gray-world correction: the mean chroma of the
// image is pulled back toward neutral, weighted by each pixel's lightness.
// The source image is not modified.
func WhiteBalance(img *image.RGBA) *image.RGBA {
	const strength = 1.1

	meanA, meanB := MeanChroma(img)
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			lab := ToLab(img.RGBAAt(x, y))
			weight := lab.L / 255.0 * strength
			lab.A -= (meanA - Neutral) * weight
			lab.B -= (meanB - Neutral) * weight
			out.SetRGBA(x, y, lab.RGBA())
		}
	}
	return out
}
