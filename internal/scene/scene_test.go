package scene

import (
	"testing"

	"cell-editor/internal/lifecycle"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

func TestNewUsesCamera(t *testing.T) {
	s := New(lifecycle.DefaultCamera, true)
	assert.Equal(t, rl.NewVector3(2, 2, 4), s.Camera.Position)
	assert.Equal(t, rl.NewVector3(0, 0.5, 0), s.Camera.Target)
	assert.True(t, s.GridVisible)
}

func TestSyncAppliesCameraOncePerGeneration(t *testing.T) {
	s := New(lifecycle.DefaultCamera, false)
	cam := lifecycle.Camera{Position: rl.NewVector3(5, 5, 5), LookAt: rl.NewVector3(1, 0, 1)}

	s.Sync(&lifecycle.Snapshot{Generation: 1, Camera: cam})
	assert.Equal(t, cam.Position, s.Camera.Position)

	// user orbit within the same generation survives
	s.Camera.Position = rl.NewVector3(0, 9, 0)
	s.Sync(&lifecycle.Snapshot{Generation: 1, Camera: cam})
	assert.Equal(t, rl.NewVector3(0, 9, 0), s.Camera.Position)

	next := lifecycle.Camera{Position: rl.NewVector3(3, 3, 3), LookAt: rl.NewVector3(0, 0, 0)}
	s.Sync(&lifecycle.Snapshot{Generation: 2, Camera: next})
	assert.Equal(t, next.Position, s.Camera.Position)
	assert.Equal(t, next.LookAt, s.Camera.Target)
}

func TestSyncFirstSnapshot(t *testing.T) {
	s := New(lifecycle.DefaultCamera, false)
	s.Camera.Position = rl.NewVector3(7, 7, 7)
	s.Sync(&lifecycle.Snapshot{Camera: lifecycle.DefaultCamera})
	assert.Equal(t, lifecycle.DefaultCamera.Position, s.Camera.Position)
}
