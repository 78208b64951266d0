package fetch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
)

// FS is a Source over a hackpadfs filesystem.
type FS struct {
	fsys     hackpadfs.FS
	dir      string // on-disk root; empty when fsys is not backed by the OS
	cacheDir string
}

// NewDir returns a Source rooted at the directory root. Plain files resolve
// in place; bundles are extracted under cacheDir.
func NewDir(root, cacheDir string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("asset root %s: %w", root, err)
	}
	sub, err := osfs.NewFS().Sub(strings.TrimPrefix(filepath.ToSlash(abs), "/"))
	if err != nil {
		return nil, fmt.Errorf("asset root %s: %w", root, err)
	}
	return &FS{fsys: sub, dir: abs, cacheDir: cacheDir}, nil
}

// NewFS returns a Source over fsys. Every resolved asset is copied to cacheDir.
func NewFS(fsys hackpadfs.FS, cacheDir string) *FS {
	return &FS{fsys: fsys, cacheDir: cacheDir}
}

// Fetch implements Source.
func (s *FS) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := hackpadfs.ReadFile(s.fsys, n)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", n, err)
	}
	return data, nil
}

// Resolve implements Source.
func (s *FS) Resolve(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if s.dir == "" || isBundle(n) {
		return materialize(ctx, s.Fetch, n, s.cacheDir)
	}
	if _, err := hackpadfs.Stat(s.fsys, n); err != nil {
		return "", fmt.Errorf("resolve %s: %w", n, err)
	}
	return filepath.Join(s.dir, filepath.FromSlash(n)), nil
}

// Path returns the on-disk path of name, for watching. ok is false when the
// source is not backed by the OS filesystem.
func (s *FS) Path(name string) (p string, ok bool) {
	n, err := cleanName(name)
	if err != nil || s.dir == "" {
		return "", false
	}
	return filepath.Join(s.dir, filepath.FromSlash(n)), true
}
