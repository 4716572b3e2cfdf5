package mask

import (
	"image"

	"golang.org/x/image/draw"
)

// Upscale resizes m to width x height with nearest-neighbor sampling.
// Smoothing resamplers are never used: they would leave a gray fringe that
// the compositor's feathering would then blur a second time.
func Upscale(m *Mask, width, height int) *Mask {
	if m.Width == width && m.Height == height {
		return m.Clone()
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), m.Image(), m.Extent(), draw.Src, nil)
	return fromGray(dst)
}

func fromGray(img *image.Gray) *Mask {
	b := img.Bounds()
	out := New(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+out.Width]
		for x, v := range row {
			out.Bits[y*out.Width+x] = v >= 0x80
		}
	}
	return out
}
