package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const robotGLTF = `{"asset":{"version":"2.0"},"buffers":[{"uri":"UR5e.bin"}],"images":[{"uri":"tex/base%20color.png"},{"uri":"data:image/png;base64,AAAA"}]}`

func memSource(t *testing.T, files map[string]string) *FS {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	for name, body := range files {
		if dir := path.Dir(name); dir != "." {
			require.NoError(t, hackpadfs.MkdirAll(fsys, dir, 0755))
		}
		require.NoError(t, hackpadfs.WriteFullFile(fsys, name, []byte(body), 0644))
	}
	return NewFS(fsys, t.TempDir())
}

func TestCleanName(t *testing.T) {
	for in, want := range map[string]string{
		"/UR5e.gltf":       "UR5e.gltf",
		"models/robot.glb": "models/robot.glb",
		"a/./b.json":       "a/b.json",
	} {
		got, err := cleanName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, bad := range []string{"", "/", "../secret", "a/../../b"} {
		_, err := cleanName(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestFSFetch(t *testing.T) {
	src := memSource(t, map[string]string{"scene.json": `{"objects":[]}`})
	ctx := context.Background()

	data, err := src.Fetch(ctx, "/scene.json")
	require.NoError(t, err)
	assert.Equal(t, `{"objects":[]}`, string(data))

	_, err = src.Fetch(ctx, "missing.json")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = src.Fetch(ctx, "../scene.json")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestFSFetchCancelled(t *testing.T) {
	src := memSource(t, map[string]string{"scene.json": "{}"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Fetch(ctx, "scene.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFSResolveMaterializesGLTF(t *testing.T) {
	src := memSource(t, map[string]string{
		"models/UR5e.gltf":          robotGLTF,
		"models/UR5e.bin":           "buffer",
		"models/tex/base color.png": "png",
	})
	p, err := src.Resolve(context.Background(), "/models/UR5e.gltf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(src.cacheDir, "models", "UR5e.gltf"), p)

	bin, err := os.ReadFile(filepath.Join(src.cacheDir, "models", "UR5e.bin"))
	require.NoError(t, err)
	assert.Equal(t, "buffer", string(bin))
	assert.FileExists(t, filepath.Join(src.cacheDir, "models", "tex", "base color.png"))
}

func TestFSResolveMissingDependency(t *testing.T) {
	src := memSource(t, map[string]string{"UR5e.gltf": robotGLTF})
	_, err := src.Resolve(context.Background(), "UR5e.gltf")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDirResolvesInPlace(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "UR5e.glb"), []byte("glb"), 0644))
	src, err := NewDir(root, t.TempDir())
	require.NoError(t, err)

	p, err := src.Resolve(context.Background(), "/UR5e.glb")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "UR5e.glb"), p)

	_, err = src.Resolve(context.Background(), "nope.glb")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	watched, ok := src.Path("scene.json")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "scene.json"), watched)
}

func TestDirResolvesBundle(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("robot/UR5e.glb")
	require.NoError(t, err)
	_, err = w.Write([]byte("glb"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(root, "robot.zip"), buf.Bytes(), 0644))

	cache := t.TempDir()
	src, err := NewDir(root, cache)
	require.NoError(t, err)
	p, err := src.Resolve(context.Background(), "robot.zip")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "robot", "robot", "UR5e.glb"), p)
}

func TestHTTPFetchAndResolve(t *testing.T) {
	var brokenHits, forbiddenHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.UserAgent() != userAgent {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/cell/scene.json":
			_, _ = w.Write([]byte(`{"objects":[]}`))
		case "/cell/UR5e.gltf":
			_, _ = w.Write([]byte(robotGLTF))
		case "/cell/UR5e.bin", "/cell/tex/base color.png":
			_, _ = w.Write([]byte("data"))
		case "/cell/broken.json":
			brokenHits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		case "/cell/forbidden.json":
			forbiddenHits.Add(1)
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cache := t.TempDir()
	src, err := NewHTTP(srv.URL+"/cell", cache, 5*time.Second)
	require.NoError(t, err)
	src.newBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	}
	ctx := context.Background()

	data, err := src.Fetch(ctx, "/scene.json")
	require.NoError(t, err)
	assert.Equal(t, `{"objects":[]}`, string(data))

	_, err = src.Fetch(ctx, "missing.json")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = src.Fetch(ctx, "broken.json")
	assert.ErrorContains(t, err, "HTTP 500")
	assert.Equal(t, int32(3), brokenHits.Load())

	_, err = src.Fetch(ctx, "forbidden.json")
	assert.ErrorContains(t, err, "HTTP 403")
	assert.Equal(t, int32(1), forbiddenHits.Load())

	p, err := src.Resolve(ctx, "UR5e.gltf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "UR5e.gltf"), p)
	assert.FileExists(t, filepath.Join(cache, "UR5e.bin"))
	assert.FileExists(t, filepath.Join(cache, "tex", "base color.png"))
}

func TestHTTPFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	src, err := NewHTTP(srv.URL, t.TempDir(), time.Minute)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = src.Fetch(ctx, "scene.json")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPRejectsScheme(t *testing.T) {
	_, err := NewHTTP("ftp://example.com", t.TempDir(), time.Second)
	assert.Error(t, err)
}

func TestGLTFURIs(t *testing.T) {
	assert.Equal(t, []string{"UR5e.bin", "tex/base color.png"}, gltfURIs([]byte(robotGLTF)))
	assert.Nil(t, gltfURIs([]byte("not json")))
	assert.Empty(t, gltfURIs([]byte(`{"buffers":[{"uri":"data:application/octet-stream;base64,AAAA"},{"uri":"https://cdn.example.com/a.bin"}]}`)))
}
