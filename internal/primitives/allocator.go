// Package primitives allocates the GPU resources entities draw with: generated
// boxes and cylinders and models loaded from disk.
package primitives

import (
	"cell-editor/internal/entity"
	"cell-editor/internal/factory"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Allocator creates drawables. Calls may block until the render thread has
// serviced them.
type Allocator interface {
	// Box returns a box of the given size centred on the local origin.
	Box(size rl.Vector3, color rl.Color) (entity.Drawable, error)
	// Cylinder returns a cylinder along local Y centred on the local origin.
	Cylinder(radius, height float32, color rl.Color) (entity.Drawable, error)
	// LoadModel loads the model file at path. The updater plays every
	// animation clip in the file and is nil when there are none.
	LoadModel(path string) (entity.Drawable, factory.Updater, error)
}

func boxBounds(size rl.Vector3) rl.BoundingBox {
	half := rl.Vector3Scale(size, 0.5)
	return rl.NewBoundingBox(rl.Vector3Negate(half), half)
}

func cylinderBounds(radius, height float32) rl.BoundingBox {
	return rl.NewBoundingBox(
		rl.NewVector3(-radius, -height/2, -radius),
		rl.NewVector3(radius, height/2, radius),
	)
}
