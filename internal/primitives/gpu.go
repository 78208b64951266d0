package primitives

import (
	"fmt"

	"cell-editor/internal/entity"
	"cell-editor/internal/factory"
	"cell-editor/internal/graphics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// cylinderSlices controls cylinder mesh resolution.
const cylinderSlices = 16

// animationFPS is the rate raylib samples glTF animation frames at.
const animationFPS = 60

// GPU is the raylib Allocator. Every GL call goes through the queue so it runs
// on the thread that owns the context, whichever goroutine asked for it.
type GPU struct {
	q *graphics.Queue
}

// NewGPU returns an allocator that submits work to q.
func NewGPU(q *graphics.Queue) *GPU {
	return &GPU{q: q}
}

// Box implements Allocator.
func (g *GPU) Box(size rl.Vector3, color rl.Color) (entity.Drawable, error) {
	m := &mesh{q: g.q, bounds: boxBounds(size)}
	err := g.q.Do(func() {
		m.mesh = rl.GenMeshCube(size.X, size.Y, size.Z)
		m.mtl = coloredMaterial(color)
	})
	if err != nil {
		return nil, fmt.Errorf("box: %w", err)
	}
	return m, nil
}

// Cylinder implements Allocator. raylib generates cylinders with the base at
// Y=0, so the mesh is drawn shifted down by half its height.
func (g *GPU) Cylinder(radius, height float32, color rl.Color) (entity.Drawable, error) {
	m := &mesh{
		q:      g.q,
		bounds: cylinderBounds(radius, height),
		offset: rl.MatrixTranslate(0, -height/2, 0),
		shift:  true,
	}
	err := g.q.Do(func() {
		m.mesh = rl.GenMeshCylinder(radius, height, cylinderSlices)
		m.mtl = coloredMaterial(color)
	})
	if err != nil {
		return nil, fmt.Errorf("cylinder: %w", err)
	}
	return m, nil
}

// LoadModel implements Allocator.
func (g *GPU) LoadModel(path string) (entity.Drawable, factory.Updater, error) {
	md := &model{q: g.q}
	var anims []rl.ModelAnimation
	var valid bool
	err := g.q.Do(func() {
		md.model = rl.LoadModel(path)
		valid = rl.IsModelValid(md.model)
		if !valid {
			return
		}
		md.bounds = rl.GetModelBoundingBox(md.model)
		anims = rl.LoadModelAnimations(path)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load model %s: %w", path, err)
	}
	if !valid {
		return nil, nil, fmt.Errorf("load model %s: not a valid model", path)
	}
	if len(anims) == 0 {
		return md, nil, nil
	}
	return md, &animator{q: g.q, model: md, anims: anims}, nil
}

func coloredMaterial(color rl.Color) rl.Material {
	mtl := rl.LoadMaterialDefault()
	if albedo := mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = color
	}
	return mtl
}

// mesh is a generated shape with its own material.
type mesh struct {
	q        *graphics.Queue
	mesh     rl.Mesh
	mtl      rl.Material
	bounds   rl.BoundingBox
	offset   rl.Matrix
	shift    bool
	released bool
}

func (m *mesh) Draw(world rl.Matrix) {
	if m.released {
		return
	}
	if m.shift {
		world = rl.MatrixMultiply(m.offset, world)
	}
	rl.DrawMesh(m.mesh, m.mtl, world)
}

func (m *mesh) Bounds() rl.BoundingBox { return m.bounds }

// Release frees the mesh and material. Once the queue is closed the context is
// gone with the window and there is nothing left to free.
func (m *mesh) Release() {
	_ = m.q.Do(func() {
		if m.released {
			return
		}
		rl.UnloadMesh(&m.mesh)
		rl.UnloadMaterial(m.mtl)
		m.released = true
	})
}

// model is a loaded model file.
type model struct {
	q        *graphics.Queue
	model    rl.Model
	bounds   rl.BoundingBox
	released bool
}

func (md *model) Draw(world rl.Matrix) {
	if md.released {
		return
	}
	md.model.Transform = world
	rl.DrawModel(md.model, rl.Vector3{}, 1, rl.White)
}

func (md *model) Bounds() rl.BoundingBox { return md.bounds }

func (md *model) Release() {
	_ = md.q.Do(func() {
		if md.released {
			return
		}
		rl.UnloadModel(md.model)
		md.released = true
	})
}

// animator plays every clip of a model at once, looping. Update runs on the
// render thread; Stop is marshalled there, so the two never overlap.
type animator struct {
	q       *graphics.Queue
	model   *model
	anims   []rl.ModelAnimation
	elapsed float32
	stopped bool
}

func (a *animator) Update(dt float32) {
	if a.stopped || a.model.released {
		return
	}
	a.elapsed += dt
	frame := int32(a.elapsed * animationFPS)
	for _, anim := range a.anims {
		if anim.FrameCount <= 0 {
			continue
		}
		rl.UpdateModelAnimation(a.model.model, anim, frame%anim.FrameCount)
	}
}

func (a *animator) Stop() {
	_ = a.q.Do(func() {
		if a.stopped {
			return
		}
		rl.UnloadModelAnimations(a.anims)
		a.stopped = true
	})
}
