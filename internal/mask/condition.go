package mask

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/erinpentecost/wallpaint/internal/plane"
)

const (
	medianKernel  = 5
	closingKernel = 9
	dilateKernel  = 3
)

// Op is a boolean combination of two masks.
type Op int

const (
	// Union selects pixels in either mask.
	Union Op = iota
	// Subtract selects pixels in the first mask but not the second.
	Subtract
)

func (o Op) String() string {
	switch o {
	case Union:
		return "union"
	case Subtract:
		return "subtract"
	default:
		return "unknown"
	}
}

// Smooth removes speckle and pinholes from a raw selection. It runs a 5x5
// median, a 9x9 closing and one 3x3 dilation, in that order. Pixels
// outside the frame never select during dilation and never deselect
// during erosion, so each pass grows the selection by at most one pixel.
func Smooth(m *Mask) *Mask {
	if len(m.Bits) == 0 {
		return m.Clone()
	}
	src := m.mat()
	defer src.Close()

	mat := gocv.NewMat()
	defer mat.Close()
	gocv.MedianBlur(src, &mat, medianKernel)

	closing := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(closingKernel, closingKernel))
	defer closing.Close()
	gocv.MorphologyEx(mat, &mat, gocv.MorphClose, closing)

	grow := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(dilateKernel, dilateKernel))
	defer grow.Close()
	gocv.Dilate(mat, &mat, grow)

	return fromMat(mat)
}

// Feather blurs the mask into a 0..1 alpha ramp. Radii below 1 become 1
// and even radii are bumped to the next odd kernel size, so radius 1
// returns the hard mask unchanged.
func Feather(m *Mask, radius int) *plane.Plane {
	alpha := plane.New(m.Width, m.Height)
	for i, b := range m.Bits {
		if b {
			alpha.Pix[i] = 1
		}
	}
	return plane.GaussianBlur(alpha, plane.KernelSize(radius)).Clamp(0, 1)
}

// Merge combines two masks of the same extent.
func Merge(a, b *Mask, op Op) (*Mask, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return nil, fmt.Errorf("merge %dx%d with %dx%d: %w", a.Width, a.Height, b.Width, b.Height, ErrShapeMismatch)
	}
	out := New(a.Width, a.Height)
	for i := range out.Bits {
		switch op {
		case Union:
			out.Bits[i] = a.Bits[i] || b.Bits[i]
		case Subtract:
			out.Bits[i] = a.Bits[i] && !b.Bits[i]
		default:
			return nil, fmt.Errorf("merge with %v", op)
		}
	}
	return out, nil
}

// mat copies m into a CV_8UC1 Mat holding 0 or 255. The caller closes it.
func (m *Mask) mat() gocv.Mat {
	mat := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV8UC1)
	data, err := mat.DataPtrUint8()
	if err != nil {
		mat.Close()
		panic(fmt.Errorf("mask: map %dx%d mat: %w", m.Width, m.Height, err))
	}
	for i, b := range m.Bits {
		if b {
			data[i] = 0xFF
		} else {
			data[i] = 0
		}
	}
	return mat
}

func fromMat(mat gocv.Mat) *Mask {
	data, err := mat.DataPtrUint8()
	if err != nil {
		panic(fmt.Errorf("mask: read mat: %w", err))
	}
	out := New(mat.Cols(), mat.Rows())
	for i := range out.Bits {
		out.Bits[i] = data[i] >= 0x80
	}
	return out
}
