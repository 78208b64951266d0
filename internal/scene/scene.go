// Package scene is the rendering root: it owns the 3D camera and draws the
// published snapshot, the editor grid and selection outlines.
package scene

import (
	"cell-editor/internal/lifecycle"
	"cell-editor/internal/outline"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	gridExtent     = 10
	gridMinorStep  = 1
	gridMajorStep  = 5
	gridMinorAlpha = 50
	gridMajorAlpha = 120
	axisLineAlpha  = 220
	// gridScale makes one minor step 10 cm; cell objects are sized in metres.
	gridScale = 0.1
)

// OutlineColor is the colour of selection outlines.
var OutlineColor = rl.NewColor(255, 255, 0, 255)

// Scene holds the camera and draws the world. Every method runs on the render thread.
type Scene struct {
	Camera      rl.Camera3D
	GridVisible bool

	generation uint64
	synced     bool
}

// New returns a scene viewing cam with a perspective camera (fovy 45°).
func New(cam lifecycle.Camera, gridVisible bool) *Scene {
	s := &Scene{GridVisible: gridVisible}
	s.Camera.Up = rl.NewVector3(0, 1, 0)
	s.Camera.Fovy = 45
	s.Camera.Projection = rl.CameraPerspective
	s.apply(cam)
	return s
}

func (s *Scene) apply(cam lifecycle.Camera) {
	s.Camera.Position = cam.Position
	s.Camera.Target = cam.LookAt
}

// SetGridVisible sets whether the editor grid is drawn.
func (s *Scene) SetGridVisible(visible bool) {
	s.GridVisible = visible
}

// Sync moves the camera to the snapshot's camera the first time each
// generation is seen. Within a generation the user's camera moves are kept.
func (s *Scene) Sync(snap *lifecycle.Snapshot) {
	if s.synced && snap.Generation == s.generation {
		return
	}
	s.generation, s.synced = snap.Generation, true
	s.apply(snap.Camera)
}

// Update orbits the camera while the right mouse button is held.
func (s *Scene) Update() {
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		rl.UpdateCamera(&s.Camera, rl.CameraOrbital)
	}
}

// Draw renders the snapshot's entities, then an outline around each
// highlighted entity. Call between BeginDrawing and EndDrawing.
func (s *Scene) Draw(snap *lifecycle.Snapshot, highlight *outline.Set) {
	rl.BeginMode3D(s.Camera)
	if s.GridVisible {
		drawEditorGrid()
	}
	for _, inst := range snap.Instances {
		inst.Entity.Draw()
	}
	for _, e := range highlight.Items() {
		if e.Disposed() {
			continue
		}
		if box, ok := e.Bounds(); ok {
			rl.DrawBoundingBox(box, OutlineColor)
		}
	}
	rl.EndMode3D()
}

// drawEditorGrid draws a grid on the XZ plane with major/minor lines and axis lines.
// Reuses start/end vectors to avoid per-frame allocations in the hot loop.
func drawEditorGrid() {
	minor := rl.NewColor(128, 128, 128, gridMinorAlpha)
	major := rl.NewColor(96, 96, 96, gridMajorAlpha)
	axisX := rl.NewColor(220, 80, 80, axisLineAlpha)
	axisZ := rl.NewColor(80, 80, 220, axisLineAlpha)

	var start, end rl.Vector3
	for i := -gridExtent; i <= gridExtent; i += gridMinorStep {
		c := major
		if i%gridMajorStep != 0 {
			c = minor
		}
		v := float32(i) * gridScale
		start.X, start.Y, start.Z = v, 0, -gridExtent*gridScale
		end.X, end.Y, end.Z = v, 0, gridExtent*gridScale
		rl.DrawLine3D(start, end, c)
		start.X, start.Y, start.Z = -gridExtent*gridScale, 0, v
		end.X, end.Y, end.Z = gridExtent*gridScale, 0, v
		rl.DrawLine3D(start, end, c)
	}

	// Axis lines through origin (X=red, Z=blue)
	start.X, start.Y, start.Z = -gridExtent*gridScale, 0, 0
	end.X, end.Y, end.Z = gridExtent*gridScale, 0, 0
	rl.DrawLine3D(start, end, axisX)
	start.X, start.Y, start.Z = 0, 0, -gridExtent*gridScale
	end.X, end.Y, end.Z = 0, 0, gridExtent*gridScale
	rl.DrawLine3D(start, end, axisZ)
}
