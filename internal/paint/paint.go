// Package paint synthesizes painted pixels under the original lighting of
// a photo.
package paint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erinpentecost/wallpaint/internal/hue"
	"github.com/erinpentecost/wallpaint/internal/mask"
)

var (
	// ErrMissingLighting means no decomposition was supplied for the image.
	ErrMissingLighting = errors.New("missing lighting data")
	// ErrShapeMismatch means a mask or lighting extent differs from the
	// image extent.
	ErrShapeMismatch = mask.ErrShapeMismatch
	// ErrInvalidPaint means a paint record is out of range.
	ErrInvalidPaint = errors.New("invalid paint")
)

// Finish is the sheen category of a paint.
type Finish int

const (
	Matte Finish = iota
	Silk
	Gloss
)

func (f Finish) String() string {
	switch f {
	case Matte:
		return "matte"
	case Silk:
		return "silk"
	case Gloss:
		return "gloss"
	default:
		return fmt.Sprintf("Finish(%d)", int(f))
	}
}

func (f Finish) valid() bool {
	return f >= Matte && f <= Gloss
}

// ParseFinish reads a finish name, ignoring case and surrounding space.
func ParseFinish(s string) (Finish, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "matte":
		return Matte, nil
	case "silk":
		return Silk, nil
	case "gloss":
		return Gloss, nil
	}
	return 0, fmt.Errorf("parse finish %q: %w", s, ErrInvalidPaint)
}

func (f Finish) MarshalText() ([]byte, error) {
	if !f.valid() {
		return nil, fmt.Errorf("marshal %v: %w", f, ErrInvalidPaint)
	}
	return []byte(f.String()), nil
}

func (f *Finish) UnmarshalText(text []byte) error {
	v, err := ParseFinish(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// opacity is how strongly the pigment hides the light and dark variation
// of the wall underneath. Gloss does not flatten.
func (f Finish) opacity() float64 {
	switch f {
	case Matte:
		return 0.85
	case Silk:
		return 0.75
	default:
		return 0
	}
}

// DefaultReflectance is used when a paint record leaves reflectance unset.
const DefaultReflectance = 0.5

// Paint is one color/finish choice. Hex is the display encoding of Color.
type Paint struct {
	Color       hue.Lab
	Hex         string
	Finish      Finish
	Reflectance float64
}

// New parses a hex color and builds a validated paint.
func New(hex string, finish Finish, reflectance float64) (Paint, error) {
	lab, err := hue.ParseHex(hex)
	if err != nil {
		return Paint{}, fmt.Errorf("%w: %w", ErrInvalidPaint, err)
	}
	p := Paint{
		Color:       lab,
		Hex:         lab.Hex(),
		Finish:      finish,
		Reflectance: reflectance,
	}
	if err := p.Validate(); err != nil {
		return Paint{}, err
	}
	return p, nil
}

// Validate rejects unknown finishes and reflectance outside [0, 1].
func (p Paint) Validate() error {
	if !p.Finish.valid() {
		return fmt.Errorf("finish %v: %w", p.Finish, ErrInvalidPaint)
	}
	if p.Reflectance < 0 || p.Reflectance > 1 {
		return fmt.Errorf("reflectance %v outside [0, 1]: %w", p.Reflectance, ErrInvalidPaint)
	}
	if p.Color.L < 0 || p.Color.L > 255 {
		return fmt.Errorf("lightness %v outside [0, 255]: %w", p.Color.L, ErrInvalidPaint)
	}
	return nil
}

func (p Paint) String() string {
	return fmt.Sprintf("%s %s r=%.2f", p.Hex, p.Finish, p.Reflectance)
}
