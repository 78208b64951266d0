// Package outline keeps the set of highlighted entities in step with the
// selection.
package outline

import (
	"sync"

	"cell-editor/internal/entity"
)

// Set is the group of entities drawn with an outline. The render loop reads
// it while other goroutines replace it.
type Set struct {
	mu    sync.RWMutex
	items []*entity.Entity
}

// Replace makes items the whole set. Nil entries are dropped.
func (s *Set) Replace(items ...*entity.Entity) {
	next := make([]*entity.Entity, 0, len(items))
	for _, e := range items {
		if e != nil {
			next = append(next, e)
		}
	}
	s.mu.Lock()
	s.items = next
	s.mu.Unlock()
}

// Items returns the current members.
func (s *Set) Items() []*entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

// Contains reports whether e is outlined.
func (s *Set) Contains(e *entity.Entity) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it == e {
			return true
		}
	}
	return false
}

// SelectionSource publishes the current selection to subscribers.
type SelectionSource interface {
	Subscribe(fn func(*entity.Entity)) (cancel func())
}

// Follow keeps set equal to {selection}, or empty when nothing is selected,
// until stop is called.
func Follow(src SelectionSource, set *Set) (stop func()) {
	return src.Subscribe(func(e *entity.Entity) {
		set.Replace(e)
	})
}
