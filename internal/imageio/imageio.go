// Package imageio decodes room photos and masks and produces the working
// resolution copy used for interactive edits.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/erinpentecost/wallpaint/internal/mask"
)

const (
	// DefaultWorkingSide bounds the longest side of the working copy.
	DefaultWorkingSide = 900
	// MobileWorkingSide is the smaller bound used on constrained devices.
	MobileWorkingSide = 640
)

// Open decodes a JPEG, PNG, BMP, TGA or WebP file, honoring EXIF
// orientation.
func Open(path string) (*image.RGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %q: %w", path, err)
	}
	return ToRGBA(img), nil
}

// Decode is Open for an already opened stream.
func Decode(r io.Reader) (*image.RGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return ToRGBA(img), nil
}

// ToRGBA returns an opaque RGBA copy of img anchored at the origin.
// Transparent pixels are flattened onto white.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), imaging.Clone(img), image.Point{}, 1.0)

	out := image.NewRGBA(flat.Bounds())
	for i := 0; i < len(flat.Pix); i += 4 {
		out.Pix[i] = flat.Pix[i]
		out.Pix[i+1] = flat.Pix[i+1]
		out.Pix[i+2] = flat.Pix[i+2]
		out.Pix[i+3] = 0xFF
	}
	return out
}

// Working downsizes img with Lanczos so its longest side is at most
// maxSide. Images already small enough are returned as is.
func Working(img *image.RGBA, maxSide int) *image.RGBA {
	if maxSide <= 0 {
		maxSide = DefaultWorkingSide
	}
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img
	}
	return ToRGBA(imaging.Fit(img, maxSide, maxSide, imaging.Lanczos))
}

// OpenMask reads a mask image and resizes it to width x height with
// nearest-neighbor sampling when it was produced at another resolution.
func OpenMask(path string, width, height int) (*mask.Mask, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mask %q: %w", path, err)
	}
	m := mask.FromImage(img)
	if m.Width != width || m.Height != height {
		m = mask.Upscale(m, width, height)
	}
	return m, nil
}
