package entity

import (
	"sync/atomic"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Resource is something an entity owns exclusively and must free on disposal
// (GPU mesh, material, model).
type Resource interface {
	Release()
}

// Drawable is a GPU-side resource that can render itself with a world transform.
// Bounds is in the drawable's local space.
type Drawable interface {
	Resource
	Draw(world rl.Matrix)
	Bounds() rl.BoundingBox
}

// Entity is a node in the scene graph: a single shape, a composite assembly
// (children only), or the root of a loaded model. Rotation is Euler XYZ in radians.
// Transform fields are written by factories during construction and by interactive
// edits on the main thread; the structure (children) is fixed after construction.
type Entity struct {
	Name     string
	Position rl.Vector3
	Rotation rl.Vector3
	Scale    rl.Vector3
	Mesh     Drawable // optional; group entities have none

	parent   *Entity
	children []*Entity
	disposed atomic.Bool // set by the reload goroutine, read while drawing
}

// New returns an entity with unit scale at the origin.
func New(name string) *Entity {
	return &Entity{
		Name:  name,
		Scale: rl.NewVector3(1, 1, 1),
	}
}

// Add attaches child under e, detaching it from any previous parent first.
func (e *Entity) Add(child *Entity) {
	if child == nil || child == e {
		return
	}
	child.Detach()
	child.parent = e
	e.children = append(e.children, child)
}

// Detach removes e from its parent. No-op for roots.
func (e *Entity) Detach() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// Parent returns the parent entity or nil.
func (e *Entity) Parent() *Entity { return e.parent }

// Children returns the direct children. The slice must not be modified.
func (e *Entity) Children() []*Entity { return e.children }

// Walk visits e and its descendants in pre-order. Returning false from fn
// skips the subtree below the current node.
func (e *Entity) Walk(fn func(*Entity) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.children {
		c.Walk(fn)
	}
}

// Local returns the local transform: scale, then rotation, then translation.
func (e *Entity) Local() rl.Matrix {
	s := rl.MatrixScale(e.Scale.X, e.Scale.Y, e.Scale.Z)
	r := rl.MatrixRotateXYZ(e.Rotation)
	t := rl.MatrixTranslate(e.Position.X, e.Position.Y, e.Position.Z)
	return rl.MatrixMultiply(rl.MatrixMultiply(s, r), t)
}

// World returns the transform from e's local space to world space.
func (e *Entity) World() rl.Matrix {
	m := e.Local()
	for p := e.parent; p != nil; p = p.parent {
		m = rl.MatrixMultiply(m, p.Local())
	}
	return m
}

// Draw renders every mesh in the subtree. Must run on the thread owning the GL context.
func (e *Entity) Draw() {
	if e.disposed.Load() {
		return
	}
	e.drawWith(rl.MatrixIdentity())
}

func (e *Entity) drawWith(parentWorld rl.Matrix) {
	world := rl.MatrixMultiply(e.Local(), parentWorld)
	if e.Mesh != nil {
		e.Mesh.Draw(world)
	}
	for _, c := range e.children {
		c.drawWith(world)
	}
}

// Bounds returns the world-space box enclosing every mesh in the subtree.
// ok is false when the subtree has no meshes.
func (e *Entity) Bounds() (box rl.BoundingBox, ok bool) {
	e.Walk(func(n *Entity) bool {
		if n.Mesh == nil {
			return true
		}
		b := transformBox(n.Mesh.Bounds(), n.World())
		if !ok {
			box, ok = b, true
			return true
		}
		box.Min = rl.Vector3Min(box.Min, b.Min)
		box.Max = rl.Vector3Max(box.Max, b.Max)
		return true
	})
	return box, ok
}

// transformBox returns the axis-aligned box enclosing the 8 transformed corners of b.
func transformBox(b rl.BoundingBox, m rl.Matrix) rl.BoundingBox {
	var out rl.BoundingBox
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		p := rl.Vector3Transform(c, m)
		if i == 0 {
			out.Min, out.Max = p, p
			continue
		}
		out.Min = rl.Vector3Min(out.Min, p)
		out.Max = rl.Vector3Max(out.Max, p)
	}
	return out
}

// Dispose releases every resource in the subtree, descendants first.
// Calling it again, or on a subtree already detached from its root, is safe.
func (e *Entity) Dispose() {
	for _, c := range e.children {
		c.Dispose()
	}
	if !e.disposed.CompareAndSwap(false, true) {
		return
	}
	if e.Mesh != nil {
		e.Mesh.Release()
	}
}

// Disposed reports whether Dispose has run on e.
func (e *Entity) Disposed() bool { return e.disposed.Load() }
