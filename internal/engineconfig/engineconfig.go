package engineconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// ConfigPath is the editor config file, relative to the process working directory.
// CELL_CONFIG overrides it.
const ConfigPath = "config/editor.toml"

// Config holds everything the editor reads at startup.
type Config struct {
	Scene     SceneConfig     `toml:"scene"`
	Window    WindowConfig    `toml:"window"`
	Camera    CameraConfig    `toml:"camera"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Editor    EditorPrefs     `toml:"editor"`
}

// SceneConfig locates the scene definition and the assets it references.
// With BaseURL set, documents and assets are fetched over HTTP and assets are
// cached under CacheDir; otherwise both are read from AssetRoot.
type SceneConfig struct {
	Path          string        `toml:"path" env:"CELL_SCENE_PATH"`
	AssetRoot     string        `toml:"asset_root" env:"CELL_ASSET_ROOT"`
	BaseURL       string        `toml:"base_url" env:"CELL_ASSET_URL"`
	CacheDir      string        `toml:"cache_dir" env:"CELL_CACHE_DIR"`
	Watch         bool          `toml:"watch" env:"CELL_WATCH"`
	WatchDebounce time.Duration `toml:"watch_debounce"`
	FetchTimeout  time.Duration `toml:"fetch_timeout" env:"CELL_FETCH_TIMEOUT"`
}

type WindowConfig struct {
	Title     string `toml:"title"`
	Width     int32  `toml:"width" env:"CELL_WINDOW_WIDTH"`
	Height    int32  `toml:"height" env:"CELL_WINDOW_HEIGHT"`
	TargetFPS int32  `toml:"target_fps"`
}

// CameraConfig is the placement used when a scene document has no camera settings.
type CameraConfig struct {
	Position [3]float32 `toml:"position"`
	LookAt   [3]float32 `toml:"look_at"`
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"CELL_LOG_LEVEL"`
	Format string `toml:"format" env:"CELL_LOG_FORMAT"` // "json" or "console"
}

// TelemetryConfig enables OTLP trace export. Tracing is off unless Endpoint
// is set.
type TelemetryConfig struct {
	Endpoint string `toml:"endpoint" env:"CELL_OTEL_ENDPOINT"`
	Enabled  bool   `toml:"enabled" env:"CELL_OTEL_ENABLED"`
}

// EditorPrefs holds editor-only preferences persisted across runs.
type EditorPrefs struct {
	GridVisible bool `toml:"grid_visible"`
	ShowFPS     bool `toml:"show_fps"`
	ShowStatus  bool `toml:"show_status"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Scene: SceneConfig{
			Path:          "scene.json",
			AssetRoot:     "public",
			CacheDir:      "assets/cache",
			Watch:         true,
			WatchDebounce: 200 * time.Millisecond,
			FetchTimeout:  60 * time.Second,
		},
		Window: WindowConfig{
			Title:     "cell editor",
			Width:     1280,
			Height:    720,
			TargetFPS: 60,
		},
		Camera: CameraConfig{
			Position: [3]float32{2, 2, 4},
			LookAt:   [3]float32{0, 0.5, 0},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
		Editor: EditorPrefs{
			GridVisible: true,
			ShowStatus:  true,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads path over the defaults without environment overrides. This is
// the form to hand back to Save.
func Read(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// ApplyEnv overwrites cfg with the CELL_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes cfg to path as TOML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
