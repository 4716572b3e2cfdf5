package main

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"github.com/erinpentecost/wallpaint/internal/config"
	"github.com/erinpentecost/wallpaint/internal/export"
	"github.com/erinpentecost/wallpaint/internal/imageio"
)

const room = `
image: room.png
layers:
  - name: back wall
    color: "#2E86C1"
    finish: matte
    box: [0, 0, 80, 30]
  - color: "#F4D03F"
    finish: gloss
    polygon: [[10, 40], [70, 40], [70, 58], [10, 58]]
`

func writeRoom(t *testing.T, w, h int) string {
	t.Helper()
	dir := t.TempDir()

	photo := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(photo, photo.Bounds(), &image.Uniform{color.RGBA{210, 205, 200, 255}}, image.Point{}, draw.Src)
	// a darker band so the lighting maps are not flat
	draw.Draw(photo, image.Rect(0, h/2, w, h), &image.Uniform{color.RGBA{90, 88, 85, 255}}, image.Point{}, draw.Src)
	require.NoError(t, export.Save(filepath.Join(dir, "room.png"), photo, export.PNG, 0))

	path := filepath.Join(dir, "room.yaml")
	require.NoError(t, os.WriteFile(path, []byte(room), 0644))
	return path
}

func resolved(t *testing.T, flags config.Flags) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Resolve(flags)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRun_Render(t *testing.T) {
	yes := true
	path := writeRoom(t, 80, 60)
	cfg := resolved(t, config.Flags{Compare: &yes})

	require.NoError(t, run(context.Background(), cfg, path, "", false))

	out := filepath.Join(filepath.Dir(path), "room_painted.png")
	img, err := imageio.Open(out)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 80, 60), img.Bounds())

	photo, err := imageio.Open(filepath.Join(filepath.Dir(path), "room.png"))
	require.NoError(t, err)
	require.NotEqual(t, photo.RGBAAt(40, 10), img.RGBAAt(40, 10))
	// between the two layers nothing is painted
	require.Equal(t, photo.RGBAAt(40, 35), img.RGBAAt(40, 35))

	cmp, err := imageio.Open(filepath.Join(filepath.Dir(path), "room_painted_compare.png"))
	require.NoError(t, err)
	require.Greater(t, cmp.Bounds().Dx(), 160)
	require.Equal(t, 60, cmp.Bounds().Dy())
}

func TestRun_ExportKeepsFullResolution(t *testing.T) {
	path := writeRoom(t, 80, 60)
	cfg := resolved(t, config.Flags{WorkingSide: 40, Format: "jpeg", Quality: 90})
	out := filepath.Join(t.TempDir(), "nested", "final.jpg")

	require.NoError(t, run(context.Background(), cfg, path, out, true))

	img, err := imageio.Open(out)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 80, 60), img.Bounds())
}

func TestRun_Errors(t *testing.T) {
	cfg := resolved(t, config.Flags{})

	err := run(context.Background(), cfg, filepath.Join(t.TempDir(), "missing.yaml"), "", false)
	require.ErrorIs(t, err, os.ErrNotExist)

	path := writeRoom(t, 80, 60)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(path), "room.png")))
	err = run(context.Background(), cfg, path, "", false)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_Cancelled(t *testing.T) {
	path := writeRoom(t, 80, 60)
	cfg := resolved(t, config.Flags{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, cfg, path, "", true)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDumpLighting(t *testing.T) {
	path := writeRoom(t, 80, 60)
	photo := filepath.Join(filepath.Dir(path), "room.png")
	cfg := resolved(t, config.Flags{WorkingSide: 40})

	require.NoError(t, dumpLighting(context.Background(), cfg, photo, "", false))

	dir := filepath.Join(filepath.Dir(path), "room_lighting")
	for _, name := range []string{"luminance", "normalized", "shadow", "texture"} {
		img, err := imageio.Open(filepath.Join(dir, name+".png"))
		require.NoError(t, err, name)
		require.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds(), name)
	}

	shadow, err := imageio.Open(filepath.Join(dir, "shadow.png"))
	require.NoError(t, err)
	// the dark band is shadowed, the light band is not
	require.Greater(t, shadow.RGBAAt(20, 28).R, shadow.RGBAAt(20, 2).R)

	out := t.TempDir()
	require.NoError(t, dumpLighting(context.Background(), cfg, photo, out, true))
	lum, err := imageio.Open(filepath.Join(out, "luminance.png"))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 80, 60), lum.Bounds())
}

func TestOutputPath(t *testing.T) {
	require.Equal(t, "a/room_painted.webp", outputPath("a/room.yaml", "", "_painted", export.WebP))
	require.Equal(t, "a/room_export.jpg", outputPath("a/room.yaml", "", "_export", export.JPEG))
	require.Equal(t, "x.png", outputPath("a/room.yaml", "x.png", "_painted", export.PNG))
	require.Equal(t, "out/x_compare.png", comparePath("out/x.png"))
}

func TestSettings_BoolFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallpaint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("white_balance: true\ncompare: true\n"), 0644))

	parse := func(args ...string) config.Config {
		var s settings
		fl := pflag.NewFlagSet("render", pflag.ContinueOnError)
		s.register(fl)
		require.NoError(t, fl.Parse(append([]string{"--config", path}, args...)))
		cfg, err := s.resolve(fl)
		require.NoError(t, err)
		return cfg
	}

	cfg := parse()
	require.True(t, cfg.WhiteBalance)
	require.True(t, cfg.Compare)

	cfg = parse("--white-balance=false")
	require.False(t, cfg.WhiteBalance)
	require.True(t, cfg.Compare)

	cfg = parse("--compare=false", "--log-level", "error")
	require.True(t, cfg.WhiteBalance)
	require.False(t, cfg.Compare)
}
