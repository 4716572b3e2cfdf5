package hue

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func TestToLab_White(t *testing.T) {
	lab := ToLab(color.RGBA{255, 255, 255, 255})

	require.InDelta(t, 255.0, lab.L, 0.5)
	require.InDelta(t, Neutral, lab.A, 0.5)
	require.InDelta(t, Neutral, lab.B, 0.5)
}

func TestToLab_MidGray(t *testing.T) {
	lab := FromRGB(128, 128, 128)

	// L* of sRGB 128 is ~53.6
	require.InDelta(t, 53.59*2.55, lab.L, 0.5)
	require.InDelta(t, 0, lab.Chroma(), 0.5)
}

func TestLabToRGB_RoundTrip(t *testing.T) {
	tests := []color.RGBA{
		{10, 200, 30, 255},
		{232, 195, 158, 255},
		{0, 0, 0, 255},
		{255, 255, 255, 255},
		{192, 57, 43, 255},
	}
	for _, orig := range tests {
		rgb := ToLab(orig).RGBA()
		if absDiff(rgb.R, orig.R) > 1 ||
			absDiff(rgb.G, orig.G) > 1 ||
			absDiff(rgb.B, orig.B) > 1 {
			t.Errorf("round trip mismatch: start=%v end=%v", orig, rgb)
		}
	}
}

func TestLabToRGB_ClampsOutOfGamut(t *testing.T) {
	rgb := Lab{L: 300, A: 255, B: 0}.RGBA()
	require.Equal(t, uint8(255), rgb.A)

	rgb = Lab{L: -10, A: Neutral, B: Neutral}.RGBA()
	require.Equal(t, color.RGBA{0, 0, 0, 255}, rgb)
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "with hash", in: "#E8C39E", want: "#E8C39E"},
		{name: "without hash", in: "e8c39e", want: "#E8C39E"},
		{name: "padded", in: "  #808080 ", want: "#808080"},
		{name: "garbage", in: "#nothex", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lab, err := ParseHex(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, lab.Hex())
		})
	}
}

func TestMeanChroma(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{128, 128, 128, 255})
	img.Set(1, 0, color.RGBA{255, 255, 255, 255})

	a, b := MeanChroma(img)
	require.InDelta(t, Neutral, a, 0.5)
	require.InDelta(t, Neutral, b, 0.5)

	a, b = MeanChroma(image.NewRGBA(image.Rectangle{}))
	require.Equal(t, Neutral, a)
	require.Equal(t, Neutral, b)
}

func TestWhiteBalance_PullsCastTowardNeutral(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.SetRGBA(x, y, color.RGBA{220, 200, 160, 255})
		}
	}

	before := ToLab(img.RGBAAt(0, 0)).Chroma()
	out := WhiteBalance(img)
	after := ToLab(out.RGBAAt(0, 0)).Chroma()

	require.Less(t, after, before)
	// source untouched
	require.Equal(t, color.RGBA{220, 200, 160, 255}, img.RGBAAt(0, 0))
	require.False(t, math.IsNaN(after))
}
