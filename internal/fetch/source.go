// Package fetch retrieves scene documents and model assets by name, from a
// directory or over HTTP, and materialises assets as local files for the
// model loader.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cell-editor/internal/archive"

	"github.com/tidwall/gjson"
)

// ErrInvalidPath is returned for names that escape the source root.
var ErrInvalidPath = errors.New("invalid asset path")

// Source resolves names relative to an asset root. Names may carry a leading
// "/" meaning "from the root". Missing names yield errors matching
// fs.ErrNotExist.
type Source interface {
	// Fetch returns the contents of name.
	Fetch(ctx context.Context, name string) ([]byte, error)
	// Resolve returns a local file path for name. Zip bundles are extracted
	// and the model inside is returned; glTF files have their external
	// buffers and images made available next to them.
	Resolve(ctx context.Context, name string) (string, error)
}

func cleanName(name string) (string, error) {
	n := path.Clean(strings.TrimLeft(name, "/"))
	if n == "." || !fs.ValidPath(n) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return n, nil
}

func isBundle(name string) bool {
	return strings.EqualFold(path.Ext(name), ".zip")
}

type fetchFunc func(ctx context.Context, name string) ([]byte, error)

// materialize writes name and whatever it depends on under cacheDir and
// returns the path to hand to the model loader.
func materialize(ctx context.Context, fetch fetchFunc, name, cacheDir string) (string, error) {
	data, err := fetch(ctx, name)
	if err != nil {
		return "", err
	}
	dest, err := writeCache(cacheDir, name, data)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".zip":
		dir := strings.TrimSuffix(dest, filepath.Ext(dest))
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("resolve %s: %w", name, err)
		}
		if _, err := archive.Unzip(dest, dir); err != nil {
			return "", fmt.Errorf("resolve %s: %w", name, err)
		}
		return archive.FindModel(dir)
	case ".gltf":
		for _, uri := range gltfURIs(data) {
			dep, err := cleanName(path.Join(path.Dir(name), uri))
			if err != nil {
				return "", fmt.Errorf("resolve %s: %w", name, err)
			}
			b, err := fetch(ctx, dep)
			if err != nil {
				return "", fmt.Errorf("resolve %s: %w", name, err)
			}
			if _, err := writeCache(cacheDir, dep, b); err != nil {
				return "", err
			}
		}
	}
	return dest, nil
}

func writeCache(cacheDir, name string, data []byte) (string, error) {
	if cacheDir == "" {
		return "", fmt.Errorf("resolve %s: no cache directory", name)
	}
	dest := filepath.Join(cacheDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("resolve %s: %w", name, err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("resolve %s: %w", name, err)
	}
	return dest, nil
}

// gltfURIs lists the relative buffer and image URIs of a glTF document.
// Embedded data URIs and absolute URLs are skipped; a document that does not
// parse yields none and is left for the model loader to reject.
func gltfURIs(data []byte) []string {
	if !gjson.ValidBytes(data) {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, key := range []string{"buffers.#.uri", "images.#.uri"} {
		gjson.GetBytes(data, key).ForEach(func(_, v gjson.Result) bool {
			uri := v.String()
			if uri == "" || strings.HasPrefix(uri, "data:") || strings.Contains(uri, "://") {
				return true
			}
			if u, err := url.PathUnescape(uri); err == nil {
				uri = u
			}
			if !seen[uri] {
				seen[uri] = true
				out = append(out, uri)
			}
			return true
		})
	}
	return out
}
