package plane

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// KernelSize normalizes a requested kernel size: values below 1 become 1
// and even values are bumped to the next odd number.
func KernelSize(size int) int {
	if size < 1 {
		return 1
	}
	if size%2 == 0 {
		return size + 1
	}
	return size
}

// Mat copies p into a new single-channel CV_32F Mat. The caller closes it.
func (p *Plane) Mat() gocv.Mat {
	mat := gocv.NewMatWithSize(p.Height, p.Width, gocv.MatTypeCV32FC1)
	data, err := mat.DataPtrFloat32()
	if err != nil {
		mat.Close()
		panic(fmt.Errorf("plane: map %dx%d mat: %w", p.Width, p.Height, err))
	}
	copy(data, p.Pix)
	return mat
}

// FromMat copies a single-channel CV_32F Mat into a new plane.
func FromMat(mat gocv.Mat) (*Plane, error) {
	if mat.Type() != gocv.MatTypeCV32FC1 {
		return nil, fmt.Errorf("plane: mat type %v is not CV_32FC1", mat.Type())
	}
	data, err := mat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("plane: read mat: %w", err)
	}
	out := New(mat.Cols(), mat.Rows())
	copy(out.Pix, data)
	return out, nil
}

// GaussianBlur convolves p with a size x size Gaussian whose sigma is
// derived from the kernel size. Borders are mirrored without repeating
// the edge sample (reflect-101).
func GaussianBlur(p *Plane, size int) *Plane {
	size = KernelSize(size)
	if size == 1 || len(p.Pix) == 0 {
		out := New(p.Width, p.Height)
		copy(out.Pix, p.Pix)
		return out
	}

	src := p.Mat()
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	gocv.GaussianBlur(src, &dst, image.Pt(size, size), 0, 0, gocv.BorderDefault)

	out, err := FromMat(dst)
	if err != nil {
		panic(fmt.Errorf("plane: gaussian blur %d: %w", size, err))
	}
	return out
}
