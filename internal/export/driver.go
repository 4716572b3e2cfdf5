// Package export re-renders a set of paint layers against the full
// resolution photo and writes the result.
package export

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/erinpentecost/wallpaint/internal/lighting"
	"github.com/erinpentecost/wallpaint/internal/logging"
	"github.com/erinpentecost/wallpaint/internal/mask"
	"github.com/erinpentecost/wallpaint/internal/paint"
)

// Layer is one painted region. Mask may be at any resolution; it is
// resampled to the target image before painting.
type Layer struct {
	Mask  *mask.Mask
	Paint paint.Paint
}

// Driver re-renders layers at full resolution.
type Driver struct {
	// Lighting caches the full resolution decomposition. Nil decomposes on
	// every call.
	Lighting   *lighting.Cache
	Compositor paint.Compositor
}

// Rerender paints layers onto a copy of full in order, so later layers
// sit on top where they overlap. The context is checked between layers.
func (d Driver) Rerender(ctx context.Context, full *image.RGBA, layers []Layer) (*image.RGBA, error) {
	log := logging.Logger()
	b := full.Bounds()

	var maps *lighting.Maps
	if d.Lighting != nil {
		maps = d.Lighting.Get(lighting.Full, full)
	} else {
		maps = lighting.Decompose(full)
	}
	log.Debug("decomposed full resolution lighting", "width", b.Dx(), "height", b.Dy())

	out := image.NewRGBA(b)
	draw.Draw(out, b, full, b.Min, draw.Src)
	for i, layer := range layers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("rerender layer %d: %w", i, err)
		}
		m := mask.Upscale(layer.Mask, b.Dx(), b.Dy())
		next, err := d.Compositor.Apply(out, m, layer.Paint, maps)
		if err != nil {
			return nil, fmt.Errorf("rerender layer %d (%v): %w", i, layer.Paint, err)
		}
		out = next
		log.Debug("painted layer", "index", i, "paint", layer.Paint.String(), "pixels", m.Count())
	}
	return out, nil
}
