package engineconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.toml")
	doc := `
[scene]
path = "cells/line1.yaml"
fetch_timeout = "5s"

[camera]
position = [1.0, 2.0, 3.0]

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cells/line1.yaml", cfg.Scene.Path)
	assert.Equal(t, 5*time.Second, cfg.Scene.FetchTimeout)
	assert.Equal(t, "public", cfg.Scene.AssetRoot)
	assert.Equal(t, [3]float32{1, 2, 3}, cfg.Camera.Position)
	assert.Equal(t, [3]float32{0, 0.5, 0}, cfg.Camera.LookAt)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scene]\npath = \"a.json\"\n"), 0644))
	t.Setenv("CELL_SCENE_PATH", "b.json")
	t.Setenv("CELL_WATCH", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "b.json", cfg.Scene.Path)
	assert.False(t, cfg.Scene.Watch)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scene\npath ="), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "editor.toml")
	cfg := Default()
	cfg.Editor.GridVisible = false
	cfg.Window.Width = 800
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestReadIgnoresEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"warn\"\n"), 0644))
	t.Setenv("CELL_OTEL_ENDPOINT", "http://collector:4318")
	t.Setenv("CELL_LOG_LEVEL", "debug")

	prefs, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, prefs.Telemetry.Endpoint)
	assert.Equal(t, "warn", prefs.Logging.Level)

	cfg := *prefs
	require.NoError(t, ApplyEnv(&cfg))
	assert.Equal(t, "http://collector:4318", cfg.Telemetry.Endpoint)
	assert.Equal(t, "debug", cfg.Logging.Level)

	prefs.Editor.GridVisible = false
	require.NoError(t, Save(path, prefs))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "collector")
	assert.NotContains(t, string(data), "debug")
}
