package debug

import (
	"fmt"
	"runtime"
	"strings"

	"cell-editor/internal/lifecycle"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	fontSize   = 20
	padding    = 12
	lineHeight = fontSize + 4
	// updateInterval: only refresh FPS/Mem text every N frames to reduce allocations.
	updateInterval = 30
	// logLines is how many recent log lines the overlay shows.
	logLines = 5
)

var (
	statusColor = rl.DarkGray
	errorColor  = rl.Maroon
	logColor    = rl.Gray
)

// Overlay draws runtime diagnostics: FPS and memory in the top-right corner,
// scene status in the top-left and recent log lines along the bottom.
type Overlay struct {
	ShowFPS      bool
	ShowMemAlloc bool
	ShowStatus   bool
	ShowLog      bool

	frameCount   uint32
	lastFpsText  string
	lastMemText  string
	lastMemStats runtime.MemStats
}

// New returns an overlay with everything hidden.
func New() *Overlay {
	return &Overlay{}
}

// Status is what the status block reports.
type Status struct {
	Snapshot *lifecycle.Snapshot
	Phase    lifecycle.Phase
	Selected string // display name of the selection; empty when none
	Log      []string
}

// StatusLines renders st as text, one entry per line.
func StatusLines(st Status) []string {
	snap := st.Snapshot
	lines := []string{
		fmt.Sprintf("scene #%d  %s", snap.Generation, st.Phase),
		fmt.Sprintf("instances: %d  failures: %d", len(snap.Instances), len(snap.Failures)),
	}
	if st.Selected != "" {
		lines = append(lines, "selected: "+st.Selected)
	} else {
		lines = append(lines, "selected: none")
	}
	if snap.Err != nil {
		lines = append(lines, "error: "+snap.Err.Error())
	}
	return lines
}

// Draw renders every enabled part. Call after the scene in the draw loop.
// FPS and memory text is only recomputed every updateInterval frames.
func (o *Overlay) Draw(st Status) {
	o.frameCount++
	update := o.frameCount%updateInterval == 0
	if o.ShowFPS && o.lastFpsText == "" || o.ShowMemAlloc && o.lastMemText == "" {
		update = true
	}

	screenW := int32(rl.GetScreenWidth())
	y := int32(padding)
	if o.ShowFPS {
		if update {
			o.lastFpsText = fmt.Sprintf("FPS: %d", rl.GetFPS())
		}
		drawRight(o.lastFpsText, screenW, y)
		y += lineHeight
	}
	if o.ShowMemAlloc {
		if update {
			runtime.ReadMemStats(&o.lastMemStats)
			o.lastMemText = fmt.Sprintf("Mem: %.2f MiB", float64(o.lastMemStats.Alloc)/(1024*1024))
		}
		drawRight(o.lastMemText, screenW, y)
	}

	if o.ShowStatus && st.Snapshot != nil {
		y := int32(padding)
		for _, line := range StatusLines(st) {
			c := statusColor
			if strings.HasPrefix(line, "error:") {
				c = errorColor
			}
			rl.DrawText(line, padding, y, fontSize, c)
			y += lineHeight
		}
	}

	if o.ShowLog {
		lines := st.Log
		if len(lines) > logLines {
			lines = lines[len(lines)-logLines:]
		}
		y := int32(rl.GetScreenHeight()) - padding - int32(len(lines))*lineHeight
		for _, line := range lines {
			rl.DrawText(line, padding, y, fontSize-4, logColor)
			y += lineHeight
		}
	}
}

func drawRight(text string, screenW, y int32) {
	if text == "" {
		return
	}
	w := rl.MeasureText(text, fontSize)
	rl.DrawText(text, screenW-w-padding, y, fontSize, rl.DarkGreen)
}
