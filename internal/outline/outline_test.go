package outline

import (
	"testing"

	"cell-editor/internal/entity"

	"github.com/stretchr/testify/assert"
)

type selection struct {
	current *entity.Entity
	subs    []func(*entity.Entity)
}

func (s *selection) Subscribe(fn func(*entity.Entity)) func() {
	s.subs = append(s.subs, fn)
	i := len(s.subs) - 1
	fn(s.current)
	return func() { s.subs[i] = nil }
}

func (s *selection) set(e *entity.Entity) {
	s.current = e
	for _, fn := range s.subs {
		if fn != nil {
			fn(e)
		}
	}
}

func TestFollowMirrorsSelection(t *testing.T) {
	sel := &selection{}
	a, b := entity.New("a"), entity.New("b")
	sel.current = a

	var set Set
	stop := Follow(sel, &set)
	assert.Equal(t, []*entity.Entity{a}, set.Items())

	sel.set(b)
	assert.Equal(t, []*entity.Entity{b}, set.Items())
	assert.False(t, set.Contains(a))
	assert.True(t, set.Contains(b))

	// a reload clears the selection, then selects from the new generation
	sel.set(nil)
	assert.Empty(t, set.Items())
	c := entity.New("c")
	sel.set(c)
	assert.Equal(t, []*entity.Entity{c}, set.Items())

	stop()
	sel.set(a)
	assert.Equal(t, []*entity.Entity{c}, set.Items())
}

func TestReplaceDropsNil(t *testing.T) {
	var set Set
	a := entity.New("a")
	set.Replace(nil, a, nil)
	assert.Equal(t, []*entity.Entity{a}, set.Items())
	set.Replace()
	assert.Empty(t, set.Items())
}
