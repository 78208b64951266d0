// Package terminal is the in-window console: a toggleable input bar that runs
// editor commands and shows recent log lines above it.
package terminal

import (
	"bytes"
	"strings"
	"sync"
	"unicode/utf8"

	"cell-editor/internal/commands"
	"cell-editor/internal/logger"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
)

const (
	BarHeight = 40
	// When windowed, move bar up by this many pixels so it stays visible.
	WindowedBarOffset = 56
	// ToggleKey opens and closes the terminal.
	ToggleKey = rl.KeyGrave
	prompt    = "> "
	fontSize  = 20
	padding   = 8
	// Number of log lines drawn above the input bar when the terminal is open.
	maxLinesOnScreen = 14
	lineHeight       = fontSize + 4
	maxLineLen       = 200
)

var (
	termBarColor    = rl.NewColor(40, 40, 40, 255)
	termLineColor   = rl.NewColor(80, 80, 80, 255)
	termChatBgColor = rl.NewColor(24, 24, 24, 240)
)

// Terminal is the console input bar at the bottom of the screen. Submitted
// lines run through the command registry on their own goroutine, so commands
// may wait on the render thread. Their output goes to the log.
type Terminal struct {
	log      *logger.Logger
	reg      *commands.Registry
	inputBuf string
	open     bool
	wg       sync.WaitGroup
}

// New returns a closed terminal that runs lines through reg.
func New(log *logger.Logger, reg *commands.Registry) *Terminal {
	return &Terminal{log: log, reg: reg}
}

// IsOpen reports whether the terminal is visible and capturing input.
func (t *Terminal) IsOpen() bool {
	return t.open
}

// Output returns a writer that logs each written line at info level.
// Commands registered for the terminal write here.
func (t *Terminal) Output() *LogWriter {
	return &LogWriter{log: t.log.Logger}
}

// Update handles the toggle key and, when open, typing, backspace and enter.
// Call once per frame on the render thread.
func (t *Terminal) Update() {
	if rl.IsKeyPressed(ToggleKey) {
		t.open = !t.open
		// swallow the character that toggled us
		for rl.GetCharPressed() != 0 {
		}
		return
	}
	if !t.open {
		return
	}
	if rl.IsKeyPressed(rl.KeyV) && (rl.IsKeyDown(rl.KeyLeftControl) || rl.IsKeyDown(rl.KeyRightControl) || rl.IsKeyDown(rl.KeyLeftSuper) || rl.IsKeyDown(rl.KeyRightSuper)) {
		if pasted := rl.GetClipboardText(); pasted != "" {
			t.inputBuf += pasted
		}
	} else {
		for {
			c := rl.GetCharPressed()
			if c == 0 {
				break
			}
			t.inputBuf += string(rune(c))
		}
	}
	if rl.IsKeyPressed(rl.KeyBackspace) && len(t.inputBuf) > 0 {
		_, size := utf8.DecodeLastRuneInString(t.inputBuf)
		t.inputBuf = t.inputBuf[:len(t.inputBuf)-size]
	}
	if (rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyKpEnter)) && t.inputBuf != "" {
		line := t.inputBuf
		t.inputBuf = ""
		t.Submit(line)
	}
}

// Submit runs line as if typed. It returns at once; the command runs on its
// own goroutine.
func (t *Terminal) Submit(line string) {
	args, ok := commands.Parse(line)
	if !ok {
		return
	}
	t.log.Info(prompt + line)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := t.reg.Execute(args); err != nil {
			t.log.Warn("command failed", zap.String("command", args[0]), zap.Error(err))
		}
	}()
}

// Wait blocks until every submitted command has returned.
func (t *Terminal) Wait() {
	t.wg.Wait()
}

// Draw draws the input bar and the recent log lines above it when open.
func (t *Terminal) Draw() {
	if !t.open {
		return
	}
	screenW := int(rl.GetScreenWidth())
	screenH := int(rl.GetScreenHeight())
	barY := screenH - BarHeight
	if !rl.IsWindowFullscreen() {
		barY -= WindowedBarOffset
	}

	chatHeight := maxLinesOnScreen * lineHeight
	chatY := barY - chatHeight
	if chatY < 0 {
		chatHeight = barY
		chatY = 0
	}
	if chatHeight > 0 {
		rl.DrawRectangle(0, int32(chatY), int32(screenW), int32(chatHeight), termChatBgColor)
	}
	lines := t.log.Lines()
	start := 0
	if len(lines) > maxLinesOnScreen {
		start = len(lines) - maxLinesOnScreen
	}
	for i := start; i < len(lines); i++ {
		y := chatY + (i-start)*lineHeight + padding
		rl.DrawText(truncate(lines[i]), int32(padding), int32(y), int32(fontSize), rl.LightGray)
	}

	rl.DrawRectangle(0, int32(barY), int32(screenW), int32(BarHeight), termBarColor)
	rl.DrawRectangle(0, int32(barY), int32(screenW), 1, termLineColor)
	rl.DrawText(prompt+t.inputBuf+"|", int32(padding), int32(barY+padding), int32(fontSize), rl.White)
}

func truncate(line string) string {
	if len(line) <= maxLineLen {
		return line
	}
	return line[:maxLineLen-3] + "..."
}

// LogWriter logs every complete line written to it.
type LogWriter struct {
	log *zap.Logger
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// incomplete line; keep it for the next write
			w.buf.Reset()
			w.buf.WriteString(line)
			return len(p), nil
		}
		if text := strings.TrimRight(line, "\r\n"); text != "" {
			w.log.Info(text)
		}
	}
}
