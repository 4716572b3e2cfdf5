// Package session keeps the paint assignments for one photo, their undo
// history and the caches that make re-rendering cheap.
package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/erinpentecost/wallpaint/internal/export"
	"github.com/erinpentecost/wallpaint/internal/imageio"
	"github.com/erinpentecost/wallpaint/internal/lighting"
	"github.com/erinpentecost/wallpaint/internal/logging"
	"github.com/erinpentecost/wallpaint/internal/mask"
	"github.com/erinpentecost/wallpaint/internal/paint"
)

var (
	ErrUnknownAssignment = errors.New("unknown assignment")
	ErrRemoved           = errors.New("assignment removed")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrNothingToRedo     = errors.New("nothing to redo")
)

const maxHistory = 64

// Workspace owns the assignments painted onto one photo. It is safe for
// concurrent use: edits are serialized and renders may run in parallel.
type Workspace struct {
	mu sync.RWMutex

	log        *slog.Logger
	workers    int
	maxSide    int
	compositor paint.Compositor
	lighting   *lighting.Cache

	full    *image.RGBA
	working *image.RGBA

	cur    state
	nextID ID
	undo   []state
	redo   []state

	cacheMu   sync.Mutex
	cacheKey  [sha256.Size]byte
	cacheBase *image.RGBA
	composite *image.RGBA
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger. The shared package logger is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.log = l
		}
	}
}

// WithWorkers bounds how many masks are conditioned at once.
func WithWorkers(n int) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithWorkingSide sets the longest side of the working copy.
func WithWorkingSide(n int) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.maxSide = n
		}
	}
}

// WithFeather sets the compositor's edge feather radius.
func WithFeather(radius int) Option {
	return func(w *Workspace) {
		w.compositor.FeatherRadius = radius
	}
}

// New starts a workspace for the full resolution photo full.
func New(full *image.RGBA, opts ...Option) *Workspace {
	w := &Workspace{
		log:        logging.Logger(),
		workers:    runtime.NumCPU(),
		maxSide:    imageio.DefaultWorkingSide,
		compositor: paint.Compositor{FeatherRadius: paint.DefaultFeatherRadius},
		lighting:   lighting.NewCache(),
		cur:        emptyState(),
		nextID:     1,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.setImage(full)
	return w
}

func (w *Workspace) setImage(full *image.RGBA) {
	w.full = full
	w.working = imageio.Working(full, w.maxSide)
	w.lighting.Invalidate()
	w.dropComposite()
}

// Load replaces the photo. Every assignment and all history is cleared;
// IDs keep counting up.
func (w *Workspace) Load(full *image.RGBA) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setImage(full)
	w.cur = emptyState()
	w.undo = nil
	w.redo = nil
	w.log.Info("loaded image", "width", full.Bounds().Dx(), "height", full.Bounds().Dy(),
		"working_width", w.working.Bounds().Dx(), "working_height", w.working.Bounds().Dy())
}

// Working is the downscaled photo that masks must match.
func (w *Workspace) Working() *image.RGBA {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.working
}

// Full is the original photo.
func (w *Workspace) Full() *image.RGBA {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.full
}

// Lighting returns the working resolution decomposition.
func (w *Workspace) Lighting() *lighting.Maps {
	return w.lighting.Get(lighting.Working, w.Working())
}

// commit makes next current and records the previous state for undo.
// Callers hold mu.
func (w *Workspace) commit(next state) {
	w.undo = append(w.undo, w.cur)
	if len(w.undo) > maxHistory {
		w.undo = w.undo[len(w.undo)-maxHistory:]
	}
	w.redo = nil
	w.cur = next
}

// lookup resolves id against the current state. Callers hold mu.
func (w *Workspace) lookup(id ID) (Assignment, error) {
	if a, ok := w.cur.items[id]; ok {
		return a, nil
	}
	if id > 0 && id < w.nextID {
		return Assignment{}, fmt.Errorf("assignment %v: %w", id, ErrRemoved)
	}
	return Assignment{}, fmt.Errorf("assignment %v: %w", id, ErrUnknownAssignment)
}

func (w *Workspace) checkMask(m *mask.Mask) error {
	if !m.SameShape(w.working.Bounds()) {
		b := w.working.Bounds()
		return fmt.Errorf("mask %dx%d on working image %dx%d: %w", m.Width, m.Height, b.Dx(), b.Dy(), paint.ErrShapeMismatch)
	}
	return nil
}

// Assign paints a copy of m with p and returns the new assignment's ID.
// Later edits to m do not reach the workspace.
func (w *Workspace) Assign(m *mask.Mask, p paint.Paint) (ID, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkMask(m); err != nil {
		return 0, err
	}

	id := w.nextID
	w.nextID++
	next := w.cur.clone()
	next.items[id] = Assignment{ID: id, Mask: m.Clone(), Paint: p}
	w.commit(next)
	w.log.Debug("assigned paint", "id", id.String(), "paint", p.String(), "pixels", m.Count())
	return id, nil
}

// Repaint changes the color, finish or reflectance of an assignment in
// place.
func (w *Workspace) Repaint(id ID, p paint.Paint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	a, err := w.lookup(id)
	if err != nil {
		return err
	}
	a.Paint = p
	next := w.cur.clone()
	next.items[id] = a
	w.commit(next)
	w.log.Debug("repainted", "id", id.String(), "paint", p.String())
	return nil
}

// Reshape adds m to, or cuts m out of, an assignment's mask.
func (w *Workspace) Reshape(id ID, m *mask.Mask, op mask.Op) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkMask(m); err != nil {
		return err
	}
	a, err := w.lookup(id)
	if err != nil {
		return err
	}
	merged, err := mask.Merge(a.Mask, m, op)
	if err != nil {
		return fmt.Errorf("reshape %v: %w", id, err)
	}
	a.Mask = merged
	next := w.cur.clone()
	next.items[id] = a
	w.commit(next)
	w.log.Debug("reshaped", "id", id.String(), "op", op.String(), "pixels", merged.Count())
	return nil
}

// EraseAll cuts m out of every assignment as one undo step. A cut that
// removes nothing records no step.
func (w *Workspace) EraseAll(m *mask.Mask) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkMask(m); err != nil {
		return err
	}
	if len(w.cur.items) == 0 || m.Empty() {
		return nil
	}
	next := w.cur.clone()
	changed := 0
	for id, a := range next.items {
		merged, err := mask.Merge(a.Mask, m, mask.Subtract)
		if err != nil {
			return fmt.Errorf("erase from %v: %w", id, err)
		}
		if merged.Count() == a.Mask.Count() {
			continue
		}
		a.Mask = merged
		next.items[id] = a
		changed++
	}
	if changed == 0 {
		return nil
	}
	w.commit(next)
	w.log.Debug("erased", "assignments", changed, "pixels", m.Count())
	return nil
}

// Remove drops an assignment. Its ID is never handed out again.
func (w *Workspace) Remove(id ID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.lookup(id); err != nil {
		return err
	}
	next := w.cur.clone()
	delete(next.items, id)
	w.commit(next)
	w.log.Debug("removed", "id", id.String())
	return nil
}

// Reset removes every assignment. It can be undone.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.cur.items) == 0 {
		return
	}
	w.commit(emptyState())
	w.log.Debug("reset")
}

func (w *Workspace) Undo() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.undo) == 0 {
		return ErrNothingToUndo
	}
	w.redo = append(w.redo, w.cur)
	w.cur = w.undo[len(w.undo)-1]
	w.undo = w.undo[:len(w.undo)-1]
	return nil
}

func (w *Workspace) Redo() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.redo) == 0 {
		return ErrNothingToRedo
	}
	w.undo = append(w.undo, w.cur)
	w.cur = w.redo[len(w.redo)-1]
	w.redo = w.redo[:len(w.redo)-1]
	return nil
}

// Get returns one live assignment. Its mask is a copy.
func (w *Workspace) Get(id ID) (Assignment, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a, err := w.lookup(id)
	if err != nil {
		return Assignment{}, err
	}
	a.Mask = a.Mask.Clone()
	return a, nil
}

// Assignments returns copies of the live assignments in paint order.
func (w *Workspace) Assignments() []Assignment {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := w.cur.ordered()
	for i := range out {
		out[i].Mask = out[i].Mask.Clone()
	}
	return out
}

// PickAt returns the topmost assignment covering the working pixel (x, y).
func (w *Workspace) PickAt(x, y int) (ID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ordered := w.cur.ordered()
	for i := len(ordered) - 1; i >= 0; i-- {
		if ordered[i].Mask.At(x, y) {
			return ordered[i].ID, true
		}
	}
	return 0, false
}

func (w *Workspace) snapshot() (state, *image.RGBA, *image.RGBA) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cur, w.working, w.full
}

func (w *Workspace) dropComposite() {
	w.cacheMu.Lock()
	defer w.cacheMu.Unlock()
	w.composite = nil
	w.cacheBase = nil
}

// Render composites every assignment onto the working image. The result
// is cached until the assignments change and must not be modified.
func (w *Workspace) Render(ctx context.Context) (*image.RGBA, error) {
	s, working, _ := w.snapshot()
	key := s.key()

	w.cacheMu.Lock()
	if w.composite != nil && w.cacheKey == key && w.cacheBase == working {
		out := w.composite
		w.cacheMu.Unlock()
		w.log.Debug("composite cache hit")
		return out, nil
	}
	w.cacheMu.Unlock()

	ordered := s.ordered()
	conditioned, err := w.condition(ctx, ordered)
	if err != nil {
		return nil, err
	}

	maps := w.lighting.Get(lighting.Working, working)
	b := working.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, working, b.Min, draw.Src)
	for i, a := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render %v: %w", a.ID, err)
		}
		out, err = w.compositor.Apply(out, conditioned[i], a.Paint, maps)
		if err != nil {
			return nil, fmt.Errorf("render %v: %w", a.ID, err)
		}
	}

	w.cacheMu.Lock()
	w.cacheKey = key
	w.cacheBase = working
	w.composite = out
	w.cacheMu.Unlock()
	w.log.Debug("rendered composite", "assignments", len(ordered))
	return out, nil
}

// Export re-renders every assignment against the full resolution photo.
func (w *Workspace) Export(ctx context.Context) (*image.RGBA, error) {
	s, _, full := w.snapshot()
	ordered := s.ordered()
	conditioned, err := w.condition(ctx, ordered)
	if err != nil {
		return nil, err
	}

	layers := make([]export.Layer, len(ordered))
	for i, a := range ordered {
		layers[i] = export.Layer{Mask: conditioned[i], Paint: a.Paint}
	}
	d := export.Driver{Lighting: w.lighting, Compositor: w.compositor}
	out, err := d.Rerender(ctx, full, layers)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	w.log.Info("exported", "assignments", len(layers), "width", full.Bounds().Dx(), "height", full.Bounds().Dy())
	return out, nil
}

// condition smooths every mask, in parallel.
func (w *Workspace) condition(ctx context.Context, ordered []Assignment) ([]*mask.Mask, error) {
	out := make([]*mask.Mask, len(ordered))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for i, a := range ordered {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = mask.Smooth(a.Mask)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("condition masks: %w", err)
	}
	return out, nil
}
