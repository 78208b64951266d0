package factory

import (
	"context"
	"sort"
	"sync"

	"cell-editor/internal/entity"
	"cell-editor/internal/params"
)

// Updater is a per-frame handle returned by construction (e.g. a model's
// animation player). The render loop advances only updaters it was given.
type Updater interface {
	Update(dt float32)
	Stop()
}

// Result is the outcome of a successful construction.
type Result struct {
	Entity  *entity.Entity
	Updater Updater // nil when the entity has nothing to advance per frame
}

// Factory constructs entities of one type. Create may block on asset
// retrieval and must honour ctx.
type Factory interface {
	Create(ctx context.Context, p params.Parameters) (Result, error)
}

// Func adapts a function to Factory.
type Func func(ctx context.Context, p params.Parameters) (Result, error)

// Create calls f.
func (f Func) Create(ctx context.Context, p params.Parameters) (Result, error) {
	return f(ctx, p)
}

// Registry maps type names to factories. It is built once at startup and
// handed to the loader.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds typ to f. An existing binding for typ is replaced; replaced
// reports whether that happened so the caller can surface it.
func (r *Registry) Register(typ string, f Factory) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced = r.factories[typ]
	r.factories[typ] = f
	return replaced
}

// Lookup returns the factory bound to typ.
func (r *Registry) Lookup(typ string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typ]
	return f, ok
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
