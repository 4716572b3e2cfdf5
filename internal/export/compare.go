package export

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// comparisonGap is the divider width between the two halves.
const comparisonGap = 8

// Compare lays before and after out side by side on a white background.
// after is scaled to the height of before when they differ.
func Compare(before, after image.Image) *image.NRGBA {
	bb := before.Bounds()
	if after.Bounds().Dy() != bb.Dy() {
		after = imaging.Resize(after, 0, bb.Dy(), imaging.Lanczos)
	}
	ab := after.Bounds()

	canvas := imaging.New(bb.Dx()+comparisonGap+ab.Dx(), max(bb.Dy(), ab.Dy()), color.White)
	canvas = imaging.Paste(canvas, before, image.Pt(0, 0))
	return imaging.Paste(canvas, after, image.Pt(bb.Dx()+comparisonGap, 0))
}
