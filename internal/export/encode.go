package export

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

// ErrUnknownFormat is returned for output formats that cannot be written.
var ErrUnknownFormat = errors.New("unknown image format")

// Format is an output encoding.
type Format int

const (
	PNG Format = iota
	JPEG
	WebP
	BMP
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 95

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	case WebP:
		return "webp"
	case BMP:
		return "bmp"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Ext is the canonical file extension, dot included.
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return "." + f.String()
}

// ParseFormat reads a format name such as "png" or "jpg".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	case "bmp":
		return BMP, nil
	}
	return 0, fmt.Errorf("parse format %q: %w", s, ErrUnknownFormat)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Encode writes img in the given format. Quality only applies to JPEG;
// WebP output is lossless.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	var err error
	switch f {
	case PNG:
		err = imaging.Encode(w, img, imaging.PNG)
	case JPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	case BMP:
		err = bmp.Encode(w, img)
	default:
		return fmt.Errorf("encode %v: %w", f, ErrUnknownFormat)
	}
	if err != nil {
		return fmt.Errorf("encode %v: %w", f, err)
	}
	return nil
}

// Save writes img to path, creating parent directories.
func Save(path string, img image.Image, f Format, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %q: %w", path, err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := Encode(out, img, f, quality); err != nil {
		out.Close()
		return fmt.Errorf("save %q: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %q: %w", path, err)
	}
	return nil
}
