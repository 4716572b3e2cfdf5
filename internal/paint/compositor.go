package paint

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/erinpentecost/wallpaint/internal/hue"
	"github.com/erinpentecost/wallpaint/internal/lighting"
	"github.com/erinpentecost/wallpaint/internal/mask"
	"github.com/erinpentecost/wallpaint/internal/plane"
)

const (
	// DefaultFeatherRadius keeps the soft edge to a single pixel so paint
	// does not bleed onto neighboring surfaces.
	DefaultFeatherRadius = 1

	glossExponent  = 1.2
	neutralGray    = 0.5
	shadowDesat    = 0.4
	textureBoost   = 1.5
	maxLightness   = 255.0
	recenterFactor = 2.0
)

// Compositor paints one mask at a time onto a copy of an image.
type Compositor struct {
	// FeatherRadius is the alpha ramp radius at the mask edge.
	FeatherRadius int
}

// Apply paints m with p using the default compositor.
func Apply(img *image.RGBA, m *mask.Mask, p Paint, maps *lighting.Maps) (*image.RGBA, error) {
	return Compositor{FeatherRadius: DefaultFeatherRadius}.Apply(img, m, p, maps)
}

// Apply returns a new image with the pixels selected by m repainted with
// p, under the lighting described by maps. img is never modified. An empty
// mask yields an unmodified copy.
func (c Compositor) Apply(img *image.RGBA, m *mask.Mask, p Paint, maps *lighting.Maps) (*image.RGBA, error) {
	if maps == nil {
		return nil, ErrMissingLighting
	}
	b := img.Bounds()
	if !m.SameShape(b) {
		return nil, fmt.Errorf("mask %dx%d on image %dx%d: %w", m.Width, m.Height, b.Dx(), b.Dy(), ErrShapeMismatch)
	}
	if !maps.Matches(b) {
		return nil, fmt.Errorf("lighting %dx%d on image %dx%d: %w", maps.Width, maps.Height, b.Dx(), b.Dy(), ErrShapeMismatch)
	}
	if !p.Finish.valid() {
		return nil, fmt.Errorf("finish %v: %w", p.Finish, ErrInvalidPaint)
	}

	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	if m.Empty() {
		return out, nil
	}

	// Work on the bounding box, widened by the feather reach.
	reach := plane.KernelSize(c.FeatherRadius) / 2
	box := m.Bounds().Inset(-reach).Intersect(m.Extent())

	pad := box.Inset(-reach).Intersect(m.Extent())
	alpha := mask.Feather(m.Crop(pad), c.FeatherRadius).Crop(box.Sub(pad.Min))
	norm := maps.Normalized.Crop(box)
	shadow := maps.Shadow.Crop(box)
	texture := maps.Texture.Crop(box)

	reflectance := math.Min(math.Max(p.Reflectance, 0), 1)
	opacity := p.Finish.opacity()

	for y := 0; y < box.Dy(); y++ {
		for x := 0; x < box.Dx(); x++ {
			a := float64(alpha.At(x, y))
			if a <= 0 {
				continue
			}

			// 1. flat paint albedo
			lab := p.Color

			// 2. light integration
			lum := float64(norm.At(x, y))
			if p.Finish == Gloss {
				lab.L *= math.Pow(lum, glossExponent)
			} else {
				flat := lum*(1-opacity) + neutralGray*opacity
				lab.L *= flat * recenterFactor
			}

			// 3. shadow grounding
			ground := 1 - float64(shadow.At(x, y))*shadowDesat
			lab.L *= ground
			lab.A = hue.Neutral + (lab.A-hue.Neutral)*ground
			lab.B = hue.Neutral + (lab.B-hue.Neutral)*ground

			// 4. texture
			lab.L += float64(texture.At(x, y)) * reflectance * textureBoost

			// 5. back to display color
			lab.L = math.Min(math.Max(lab.L, 0), maxLightness)
			painted := lab.RGBA()

			// 6. blend into the copy
			px := b.Min.X + box.Min.X + x
			py := b.Min.Y + box.Min.Y + y
			orig := img.RGBAAt(px, py)
			out.SetRGBA(px, py, blend(orig, painted, a))
		}
	}
	return out, nil
}

func blend(orig, painted color.RGBA, alpha float64) color.RGBA {
	mix := func(o, p uint8) uint8 {
		return uint8(math.Round((1-alpha)*float64(o) + alpha*float64(p)))
	}
	return color.RGBA{
		R: mix(orig.R, painted.R),
		G: mix(orig.G, painted.G),
		B: mix(orig.B, painted.B),
		A: orig.A,
	}
}
