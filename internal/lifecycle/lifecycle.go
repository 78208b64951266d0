// Package lifecycle owns the live scene: it runs the clear, fetch and populate
// cycle, publishes immutable snapshots for the render loop and keeps the
// selection pointing at a live entity.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"cell-editor/internal/entity"
	"cell-editor/internal/loader"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "cell-editor/lifecycle"

// ErrClosed is returned by Reload after Close.
var ErrClosed = errors.New("lifecycle: manager closed")

// Phase is where the manager is in the reload cycle.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseClearing
	PhaseFetching
	PhasePopulating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseClearing:
		return "clearing"
	case PhaseFetching:
		return "fetching"
	case PhasePopulating:
		return "populating"
	}
	return fmt.Sprintf("Phase(%d)", int32(p))
}

// Camera is where the view starts for a scene.
type Camera struct {
	Position rl.Vector3
	LookAt   rl.Vector3
}

// DefaultCamera is used when neither the scene nor the options set one.
var DefaultCamera = Camera{
	Position: rl.NewVector3(2, 2, 4),
	LookAt:   rl.NewVector3(0, 0.5, 0),
}

// SceneLoader produces the instances of a scene document.
type SceneLoader interface {
	Load(ctx context.Context, name string) (*loader.Result, error)
}

// Manager runs reloads one at a time and publishes their results.
type Manager struct {
	loader SceneLoader
	scene  string
	log    *zap.Logger
	tracer trace.Tracer
	camera Camera

	reloadMu   sync.Mutex // held for a whole reload cycle
	generation uint64
	closed     bool

	phase    atomic.Int32
	snap     atomic.Pointer[Snapshot]
	requests chan struct{}

	selMu    sync.Mutex
	selected *entity.Entity
	subs     map[int]func(*entity.Entity)
	nextSub  int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithDefaultCamera sets the camera used when a scene has no camera settings.
func WithDefaultCamera(c Camera) Option {
	return func(m *Manager) { m.camera = c }
}

// WithTracerProvider makes the manager trace through tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) { m.tracer = tp.Tracer(tracerName) }
}

// New returns a manager for the document called scene. Nothing is loaded
// until the first Reload or Request.
func New(l SceneLoader, scene string, opts ...Option) *Manager {
	m := &Manager{
		loader:   l,
		scene:    scene,
		log:      zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
		camera:   DefaultCamera,
		requests: make(chan struct{}, 1),
		subs:     make(map[int]func(*entity.Entity)),
	}
	for _, o := range opts {
		o(m)
	}
	m.snap.Store(&Snapshot{Camera: m.camera})
	return m
}

// Phase reports the current phase.
func (m *Manager) Phase() Phase { return Phase(m.phase.Load()) }

// Snapshot returns the published scene. It is never nil and never changes
// after publication.
func (m *Manager) Snapshot() *Snapshot { return m.snap.Load() }

// Reload clears the current scene and loads the document again. Calls are
// serialised: one arriving during a reload waits for it and then runs its own
// full cycle. The error is the loader's; the scene published alongside it is
// whatever was built, possibly empty.
func (m *Manager) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	if m.closed {
		return ErrClosed
	}
	defer m.phase.Store(int32(PhaseIdle))

	ctx, span := m.tracer.Start(ctx, "lifecycle.Reload", trace.WithAttributes(attribute.String("scene", m.scene)))
	defer span.End()

	m.phase.Store(int32(PhaseClearing))
	m.clear()

	m.phase.Store(int32(PhaseFetching))
	res, err := m.loader.Load(ctx, m.scene)
	if res == nil {
		res = &loader.Result{}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		// Partial result of an abandoned reload; it never goes live.
		res.Dispose()
		span.SetStatus(codes.Error, ctxErr.Error())
		return ctxErr
	}

	m.phase.Store(int32(PhasePopulating))
	m.generation++
	snap := &Snapshot{
		Generation: m.generation,
		Instances:  res.Instances,
		Camera:     m.cameraFor(res.Settings),
		Failures:   res.Failures,
		Err:        err,
	}
	m.snap.Store(snap)

	var sel *entity.Entity
	switch {
	case res.Default != nil:
		sel = res.Default.Entity
	case len(res.Instances) > 0:
		sel = res.Instances[0].Entity
	}
	m.setSelected(sel)

	span.SetAttributes(
		attribute.Int64("generation", int64(snap.Generation)),
		attribute.Int("instances", len(snap.Instances)),
		attribute.Int("failures", len(snap.Failures)),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	m.log.Info("scene loaded",
		zap.String("scene", m.scene),
		zap.Uint64("generation", snap.Generation),
		zap.Int("instances", len(snap.Instances)),
		zap.Int("failures", len(snap.Failures)),
	)
	return nil
}

// clear detaches the live generation from the render loop, drops the
// selection, then disposes it. Publication comes first because the render
// loop may be drawing the old snapshot until it sees the new one.
func (m *Manager) clear() {
	old := m.snap.Load()
	m.snap.Store(&Snapshot{Generation: old.Generation, Camera: old.Camera})
	m.setSelected(nil)
	for _, inst := range old.Instances {
		if inst.Updater != nil {
			inst.Updater.Stop()
		}
		inst.Entity.Dispose()
	}
}

func (m *Manager) cameraFor(s *loader.Settings) Camera {
	c := m.camera
	if s == nil {
		return c
	}
	if p := s.CameraPosition; p != nil {
		c.Position = rl.NewVector3(p[0], p[1], p[2])
	}
	if p := s.CameraLookAt; p != nil {
		c.LookAt = rl.NewVector3(p[0], p[1], p[2])
	}
	return c
}

// Request asks for a reload without waiting. Requests made while one is
// already pending are merged into it. Run carries them out.
func (m *Manager) Request() {
	select {
	case m.requests <- struct{}{}:
	default:
	}
}

// Run performs requested reloads until ctx ends.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.requests:
			err := m.Reload(ctx)
			switch {
			case errors.Is(err, ErrClosed):
				return err
			case err != nil && ctx.Err() == nil && !errors.Is(err, loader.ErrDefinition):
				m.log.Error("reload failed", zap.Error(err))
			}
		}
	}
}

// Close disposes the live scene. Reloads after Close fail with ErrClosed.
func (m *Manager) Close() {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.clear()
}

// Selected returns the selected entity, or nil.
func (m *Manager) Selected() *entity.Entity {
	m.selMu.Lock()
	defer m.selMu.Unlock()
	return m.selected
}

// Select makes e the selection. e must be the root entity of a published
// instance, or nil to clear; anything else is refused.
func (m *Manager) Select(e *entity.Entity) bool {
	m.selMu.Lock()
	defer m.selMu.Unlock()
	// Checked under selMu: a reload publishes its empty snapshot before it
	// clears the selection, so a stale entity cannot slip in between.
	if e != nil && m.Snapshot().instanceOf(e) == nil {
		return false
	}
	m.notify(e)
	return true
}

// SelectID selects the first published instance with the given id.
func (m *Manager) SelectID(id string) bool {
	inst := m.Snapshot().Find(id)
	if inst == nil {
		return false
	}
	return m.Select(inst.Entity)
}

// Subscribe calls fn with the current selection and again on every change.
// fn runs with the selection locked and must not call back into the manager.
// The returned function unsubscribes.
func (m *Manager) Subscribe(fn func(*entity.Entity)) (cancel func()) {
	m.selMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	fn(m.selected)
	m.selMu.Unlock()
	return func() {
		m.selMu.Lock()
		delete(m.subs, id)
		m.selMu.Unlock()
	}
}

func (m *Manager) setSelected(e *entity.Entity) {
	m.selMu.Lock()
	defer m.selMu.Unlock()
	m.notify(e)
}

// notify records e as the selection and tells subscribers. selMu must be held.
func (m *Manager) notify(e *entity.Entity) {
	if m.selected == e {
		return
	}
	m.selected = e
	for _, fn := range m.subs {
		fn(e)
	}
}
