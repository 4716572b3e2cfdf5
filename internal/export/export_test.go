package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/erinpentecost/wallpaint/internal/lighting"
	"github.com/erinpentecost/wallpaint/internal/mask"
	"github.com/erinpentecost/wallpaint/internal/paint"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func mustPaint(t *testing.T, hex string, f paint.Finish, r float64) paint.Paint {
	t.Helper()
	p, err := paint.New(hex, f, r)
	require.NoError(t, err)
	return p
}

func TestRerender_MatchesFullResolutionFold(t *testing.T) {
	full := solid(40, 40, color.RGBA{230, 225, 215, 255})
	// a little structure so lighting is not flat
	for x := 0; x < 40; x++ {
		full.SetRGBA(x, 20, color.RGBA{90, 90, 90, 255})
	}
	red := mustPaint(t, "#c0392b", paint.Matte, 0.3)

	working := mask.FromBox(10, 10, image.Rect(2, 2, 7, 7))
	got, err := Driver{}.Rerender(context.Background(), full, []Layer{{Mask: working, Paint: red}})
	require.NoError(t, err)

	want, err := paint.Apply(full, mask.FromBox(40, 40, image.Rect(8, 8, 28, 28)), red, lighting.Decompose(full))
	require.NoError(t, err)
	require.Equal(t, want.Pix, got.Pix)
}

func TestRerender_LaterLayersOnTop(t *testing.T) {
	full := solid(20, 20, color.RGBA{240, 240, 240, 255})
	blue := mustPaint(t, "#2e86c1", paint.Matte, 0.5)
	green := mustPaint(t, "#27ae60", paint.Matte, 0.5)
	left := mask.FromBox(10, 10, image.Rect(0, 0, 6, 10))
	right := mask.FromBox(10, 10, image.Rect(4, 0, 10, 10))

	d := Driver{Lighting: lighting.NewCache()}
	ab, err := d.Rerender(context.Background(), full, []Layer{{left, blue}, {right, green}})
	require.NoError(t, err)
	ba, err := d.Rerender(context.Background(), full, []Layer{{right, green}, {left, blue}})
	require.NoError(t, err)

	onlyGreen, err := d.Rerender(context.Background(), full, []Layer{{right, green}})
	require.NoError(t, err)
	onlyBlue, err := d.Rerender(context.Background(), full, []Layer{{left, blue}})
	require.NoError(t, err)

	// overlap at working x=4..5, full x=8..11
	require.Equal(t, onlyGreen.RGBAAt(10, 10), ab.RGBAAt(10, 10))
	require.Equal(t, onlyBlue.RGBAAt(10, 10), ba.RGBAAt(10, 10))
	require.Equal(t, onlyBlue.RGBAAt(2, 10), ab.RGBAAt(2, 10))
	require.Equal(t, onlyGreen.RGBAAt(18, 10), ba.RGBAAt(18, 10))
}

func TestRerender_NoLayersCopies(t *testing.T) {
	full := solid(5, 5, color.RGBA{1, 2, 3, 255})
	out, err := Driver{}.Rerender(context.Background(), full, nil)
	require.NoError(t, err)
	require.NotSame(t, full, out)
	require.Equal(t, full.Pix, out.Pix)
}

func TestRerender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	full := solid(8, 8, color.RGBA{200, 200, 200, 255})
	_, err := Driver{}.Rerender(ctx, full, []Layer{{mask.Full(4, 4), mustPaint(t, "#ffffff", paint.Gloss, 0)}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRerender_InvalidPaint(t *testing.T) {
	full := solid(8, 8, color.RGBA{200, 200, 200, 255})
	bad := mustPaint(t, "#ffffff", paint.Gloss, 0)
	bad.Finish = paint.Finish(12)
	_, err := Driver{}.Rerender(context.Background(), full, []Layer{{mask.Full(4, 4), bad}})
	require.ErrorIs(t, err, paint.ErrInvalidPaint)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"png", PNG},
		{".JPG", JPEG},
		{"jpeg", JPEG},
		{"webp", WebP},
		{" bmp ", BMP},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got)
	}
	_, err := ParseFormat("gif")
	require.ErrorIs(t, err, ErrUnknownFormat)

	f, err := FormatFromPath("/tmp/out/room.WebP")
	require.NoError(t, err)
	require.Equal(t, WebP, f)
	require.Equal(t, ".jpg", JPEG.Ext())
	require.Equal(t, ".png", PNG.Ext())
}

func TestEncode(t *testing.T) {
	img := solid(12, 9, color.RGBA{40, 90, 160, 255})
	img.SetRGBA(3, 3, color.RGBA{250, 10, 10, 255})

	t.Run("png", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, PNG, 0))
		got, err := png.Decode(&buf)
		require.NoError(t, err)
		require.Equal(t, color.NRGBAModel.Convert(img.At(3, 3)), color.NRGBAModel.Convert(got.At(3, 3)))
	})
	t.Run("bmp", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, BMP, 0))
		got, err := bmp.Decode(&buf)
		require.NoError(t, err)
		r, g, b, _ := got.At(3, 3).RGBA()
		require.Equal(t, []uint32{250, 10, 10}, []uint32{r >> 8, g >> 8, b >> 8})
	})
	t.Run("jpeg", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, JPEG, 80))
		got, err := jpeg.Decode(&buf)
		require.NoError(t, err)
		require.Equal(t, img.Bounds(), got.Bounds())
	})
	t.Run("webp", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, WebP, 0))
		require.NotZero(t, buf.Len())
		got, err := webp.Decode(&buf)
		require.NoError(t, err)
		require.Equal(t, img.Bounds(), got.Bounds())
	})
	t.Run("unknown", func(t *testing.T) {
		require.ErrorIs(t, Encode(&bytes.Buffer{}, img, Format(42), 0), ErrUnknownFormat)
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.png")
	require.NoError(t, Save(path, solid(3, 3, color.RGBA{1, 1, 1, 255}), PNG, 0))
	require.FileExists(t, path)
}

func TestCompare(t *testing.T) {
	before := solid(10, 6, color.RGBA{255, 0, 0, 255})
	after := solid(10, 6, color.RGBA{0, 0, 255, 255})

	cmp := Compare(before, after)
	require.Equal(t, image.Rect(0, 0, 10+comparisonGap+10, 6), cmp.Bounds())
	require.Equal(t, color.NRGBA{255, 0, 0, 255}, cmp.NRGBAAt(0, 0))
	require.Equal(t, color.NRGBA{255, 255, 255, 255}, cmp.NRGBAAt(10, 0))
	require.Equal(t, color.NRGBA{0, 0, 255, 255}, cmp.NRGBAAt(10+comparisonGap, 5))

	// mismatched heights are scaled to match
	tall := solid(5, 12, color.RGBA{0, 255, 0, 255})
	cmp = Compare(before, tall)
	require.Equal(t, 6, cmp.Bounds().Dy())
	require.Equal(t, 10+comparisonGap+3, cmp.Bounds().Dx())
}
