package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cell-editor/internal/engineconfig"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFilePath is the log file, relative to the working directory.
const LogFilePath = "logs/editor.log"

// maxLines bounds the in-memory copy shown by the status overlay.
const maxLines = 200

// Logger is a zap logger that also keeps the most recent lines in memory and
// appends everything to LogFilePath.
type Logger struct {
	*zap.Logger
	lines *lineBuffer
	close func()
}

// New builds a logger from cfg. Level is parsed with zap's level names
// ("debug", "info", ...); unknown levels fall back to info. Format "json"
// selects the production encoder, anything else the coloured console one.
// A file that cannot be opened is skipped, not fatal.
func New(cfg engineconfig.LoggingConfig) (*Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	l := &Logger{lines: &lineBuffer{}, close: func() {}}
	plain := plainEncoderConfig()
	extra := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(plain), zapcore.AddSync(l.lines), level),
	}
	_ = os.MkdirAll(filepath.Dir(LogFilePath), 0755)
	if sink, closeFile, err := zap.Open(LogFilePath); err == nil {
		extra = append(extra, zapcore.NewCore(zapcore.NewConsoleEncoder(plain), sink, level))
		l.close = closeFile
	}

	zl, err := zapCfg.Build(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(append([]zapcore.Core{c}, extra...)...)
	}))
	if err != nil {
		l.close()
		return nil, err
	}
	l.Logger = zl
	return l, nil
}

// NewNop returns a logger that discards output but still records lines.
func NewNop() *Logger {
	l := &Logger{lines: &lineBuffer{}, close: func() {}}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(plainEncoderConfig()), zapcore.AddSync(l.lines), zapcore.DebugLevel)
	l.Logger = zap.New(core)
	return l
}

func plainEncoderConfig() zapcore.EncoderConfig {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.CallerKey = ""
	enc.StacktraceKey = ""
	enc.ConsoleSeparator = "  "
	return enc
}

// Lines returns a copy of the most recent lines, oldest first.
func (l *Logger) Lines() []string {
	return l.lines.snapshot()
}

// Close flushes the logger and closes the log file.
func (l *Logger) Close() {
	_ = l.Logger.Sync()
	l.close()
}

type lineBuffer struct {
	mu    sync.Mutex
	lines []string
}

func (b *lineBuffer) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\n")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range strings.Split(text, "\n") {
		b.lines = append(b.lines, line)
	}
	if over := len(b.lines) - maxLines; over > 0 {
		b.lines = append(b.lines[:0], b.lines[over:]...)
	}
	return len(p), nil
}

func (b *lineBuffer) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
