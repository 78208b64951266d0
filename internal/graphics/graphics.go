package graphics

import (
	"context"

	"cell-editor/internal/engineconfig"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Run opens the window and runs the main loop on the calling goroutine, which
// must be the main OS thread. Each frame it drains q, calls update with the
// frame time, then clears the screen and calls draw. Run returns when the
// window is closed or ctx ends; the GL context is gone by then, so callers
// close q next.
func Run(ctx context.Context, cfg engineconfig.WindowConfig, q *Queue, update func(dt float32), draw func()) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(cfg.Width, cfg.Height, cfg.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(cfg.TargetFPS)

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		q.Drain()
		update(rl.GetFrameTime())

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)
		draw()
		rl.EndDrawing()
	}
	// Calls queued during the last frame still have a context to run against.
	q.Drain()
}
