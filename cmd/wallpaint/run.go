package main

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/erinpentecost/wallpaint/internal/config"
	"github.com/erinpentecost/wallpaint/internal/export"
	"github.com/erinpentecost/wallpaint/internal/hue"
	"github.com/erinpentecost/wallpaint/internal/imageio"
	"github.com/erinpentecost/wallpaint/internal/lighting"
	"github.com/erinpentecost/wallpaint/internal/logging"
	"github.com/erinpentecost/wallpaint/internal/project"
	"github.com/erinpentecost/wallpaint/internal/session"
)

// outputPath picks where a render goes when -o is not given: next to the
// input, with a suffix and the format's extension.
func outputPath(input, output, suffix string, f export.Format) string {
	if output != "" {
		return output
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + suffix + f.Ext()
}

func comparePath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + "_compare" + ext
}

// run renders a project file at working resolution, or at the photo's full
// resolution when full is set, and writes the result.
func run(ctx context.Context, cfg config.Config, projectPath, output string, full bool) error {
	format, err := cfg.OutputFormat()
	if err != nil {
		return err
	}

	fmt.Printf("Loading project %s\n", projectPath)
	proj, err := project.Load(projectPath)
	if err != nil {
		return err
	}

	photo, err := imageio.Open(proj.ImagePath())
	if err != nil {
		return err
	}
	if cfg.WhiteBalance {
		photo = hue.WhiteBalance(photo)
	}
	fmt.Printf("Photo is %dx%d\n", photo.Bounds().Dx(), photo.Bounds().Dy())

	ws := session.New(photo,
		session.WithLogger(logging.Logger()),
		session.WithWorkers(cfg.Workers),
		session.WithWorkingSide(cfg.WorkingSide),
		session.WithFeather(cfg.Feather),
	)
	ids, err := proj.Apply(ws)
	if err != nil {
		return fmt.Errorf("apply project %q: %w", projectPath, err)
	}
	fmt.Printf("Applied %d layers\n", len(ids))

	var before, after *image.RGBA
	if full {
		fmt.Printf("Re-rendering at full resolution\n")
		before = ws.Full()
		after, err = ws.Export(ctx)
	} else {
		before = ws.Working()
		after, err = ws.Render(ctx)
	}
	if err != nil {
		return fmt.Errorf("render %q: %w", projectPath, err)
	}

	suffix := "_painted"
	if full {
		suffix = "_export"
	}
	dest := outputPath(projectPath, output, suffix, format)

	g := new(errgroup.Group)
	g.Go(func() error {
		return export.Save(dest, after, format, cfg.Quality)
	})
	if cfg.Compare {
		g.Go(func() error {
			return export.Save(comparePath(dest), export.Compare(before, after), format, cfg.Quality)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", dest)
	return nil
}

// dumpLighting writes the lighting maps of a photo as grayscale images
// into a directory.
func dumpLighting(ctx context.Context, cfg config.Config, photoPath, output string, full bool) error {
	photo, err := imageio.Open(photoPath)
	if err != nil {
		return err
	}
	if cfg.WhiteBalance {
		photo = hue.WhiteBalance(photo)
	}
	if !full {
		photo = imageio.Working(photo, cfg.WorkingSide)
	}

	dir := output
	if dir == "" {
		dir = strings.TrimSuffix(photoPath, filepath.Ext(photoPath)) + "_lighting"
	}

	fmt.Printf("Decomposing %dx%d\n", photo.Bounds().Dx(), photo.Bounds().Dy())
	maps := lighting.Decompose(photo)

	planes := map[string]*image.Gray{
		"luminance":  maps.Luminance.Gray(1, 0),
		"normalized": maps.Normalized.Gray(255, 0),
		"shadow":     maps.Shadow.Gray(255, 0),
		// texture is signed; mid gray is flat
		"texture": maps.Texture.Gray(4, 128),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for name, img := range planes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return export.Save(filepath.Join(dir, name+export.PNG.Ext()), img, export.PNG, cfg.Quality)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("write lighting maps to %q: %w", dir, err)
	}
	fmt.Printf("Wrote lighting maps to %s\n", dir)
	return nil
}
