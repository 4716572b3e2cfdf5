// Package project reads the YAML document that describes which regions of
// a photo get which paint.
package project

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/erinpentecost/wallpaint/internal/imageio"
	"github.com/erinpentecost/wallpaint/internal/mask"
	"github.com/erinpentecost/wallpaint/internal/paint"
	"github.com/erinpentecost/wallpaint/internal/session"
)

// ErrNoRegion is returned for a layer that names no mask source.
var ErrNoRegion = errors.New("layer has no region")

// Point is an x, y pair in working image pixels.
type Point [2]int

func (p Point) pt() image.Point {
	return image.Pt(p[0], p[1])
}

func points(ps []Point) []image.Point {
	out := make([]image.Point, len(ps))
	for i, p := range ps {
		out[i] = p.pt()
	}
	return out
}

// Stroke is a freehand brush path.
type Stroke struct {
	Width  float64 `yaml:"width"`
	Points []Point `yaml:"points"`
}

// Layer is one painted region. The region is the union of every source
// given, minus the erase outlines.
type Layer struct {
	Name        string       `yaml:"name,omitempty"`
	Color       string       `yaml:"color"`
	Finish      paint.Finish `yaml:"finish"`
	Reflectance *float64     `yaml:"reflectance,omitempty"`

	Mask    string    `yaml:"mask,omitempty"`
	Polygon []Point   `yaml:"polygon,omitempty"`
	Box     *[4]int   `yaml:"box,omitempty"`
	Strokes []Stroke  `yaml:"strokes,omitempty"`
	Erase   [][]Point `yaml:"erase,omitempty"`
}

// Project is a photo plus its layers, applied in order.
type Project struct {
	Image  string    `yaml:"image"`
	Layers []Layer   `yaml:"layers"`
	Erase  [][]Point `yaml:"erase,omitempty"`

	dir string
}

// Load reads a project file. Relative paths inside it are resolved
// against the file's directory.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project %q: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse project %q: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	return p, nil
}

// Parse decodes a project document.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Resolve joins a path from the document with the project directory.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.dir == "" {
		return path
	}
	return filepath.Join(p.dir, path)
}

// ImagePath is the resolved photo path.
func (p *Project) ImagePath() string {
	return p.Resolve(p.Image)
}

// Paint builds the layer's validated paint.
func (l Layer) Paint() (paint.Paint, error) {
	r := paint.DefaultReflectance
	if l.Reflectance != nil {
		r = *l.Reflectance
	}
	return paint.New(l.Color, l.Finish, r)
}

func (l Layer) label(i int) string {
	if l.Name != "" {
		return fmt.Sprintf("%q", l.Name)
	}
	return fmt.Sprintf("%d", i)
}

// Region rasterizes the layer at width x height.
func (p *Project) Region(l Layer, width, height int) (*mask.Mask, error) {
	var parts []*mask.Mask
	if l.Mask != "" {
		m, err := imageio.OpenMask(p.Resolve(l.Mask), width, height)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	if len(l.Polygon) > 0 {
		m, err := mask.FromPolygon(width, height, points(l.Polygon))
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	if l.Box != nil {
		b := l.Box
		parts = append(parts, mask.FromBox(width, height, image.Rect(b[0], b[1], b[2], b[3])))
	}
	for _, s := range l.Strokes {
		m, err := mask.FromStroke(width, height, points(s.Points), s.Width)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	if len(parts) == 0 {
		return nil, ErrNoRegion
	}

	region := parts[0]
	for _, m := range parts[1:] {
		var err error
		if region, err = mask.Merge(region, m, mask.Union); err != nil {
			return nil, err
		}
	}
	for _, outline := range l.Erase {
		cut, err := mask.FromPolygon(width, height, points(outline))
		if err != nil {
			return nil, err
		}
		if region, err = mask.Merge(region, cut, mask.Subtract); err != nil {
			return nil, err
		}
	}
	return region, nil
}

// Apply assigns every layer to ws in order, then applies the global
// erase outlines. It returns the new assignment IDs in layer order.
func (p *Project) Apply(ws *session.Workspace) ([]session.ID, error) {
	b := ws.Working().Bounds()
	ids := make([]session.ID, 0, len(p.Layers))
	for i, l := range p.Layers {
		pt, err := l.Paint()
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.label(i), err)
		}
		m, err := p.Region(l, b.Dx(), b.Dy())
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.label(i), err)
		}
		id, err := ws.Assign(m, pt)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.label(i), err)
		}
		ids = append(ids, id)
	}
	for _, outline := range p.Erase {
		cut, err := mask.FromPolygon(b.Dx(), b.Dy(), points(outline))
		if err != nil {
			return nil, fmt.Errorf("erase: %w", err)
		}
		if err := ws.EraseAll(cut); err != nil {
			return nil, fmt.Errorf("erase: %w", err)
		}
	}
	return ids, nil
}
