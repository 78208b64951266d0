package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoModel is returned by FindModel when dir holds no model file.
var ErrNoModel = errors.New("no model file found")

// modelExts are the model formats raylib loads, in order of preference.
var modelExts = []string{".gltf", ".glb", ".obj", ".iqm", ".vox", ".m3d"}

// Unzip extracts zipPath into destDir, preserving directory structure.
// destDir is created if needed. Entries that would land outside destDir are
// skipped. Returns the extracted file paths.
func Unzip(zipPath, destDir string) (extracted []string, err error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && r != nil) {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	defer r.Close()
	absDir, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	for _, f := range r.File {
		dest := filepath.Join(absDir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(dest, absDir+string(os.PathSeparator)) {
			continue
		}
		if f.FileInfo().IsDir() {
			_ = os.MkdirAll(dest, 0755)
			continue
		}
		if err := extract(f, dest); err != nil {
			return nil, fmt.Errorf("unzip: %w", err)
		}
		extracted = append(extracted, dest)
	}
	return extracted, nil
}

func extract(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// FindModel returns the model file under dir to load. glTF is preferred over
// other formats; among equals the shallowest, then lexically first path wins.
func FindModel(dir string) (string, error) {
	best, bestRank, bestDepth := "", len(modelExts), 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "__MACOSX") {
				return filepath.SkipDir
			}
			return nil
		}
		rank := extRank(path)
		if rank < 0 {
			return nil
		}
		depth := strings.Count(filepath.ToSlash(path), "/")
		if best == "" || rank < bestRank || rank == bestRank && depth < bestDepth {
			best, bestRank, bestDepth = path, rank, depth
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if best == "" {
		return "", fmt.Errorf("%s: %w", dir, ErrNoModel)
	}
	return best, nil
}

func extRank(path string) int {
	ext := strings.ToLower(filepath.Ext(path))
	for i, e := range modelExts {
		if ext == e {
			return i
		}
	}
	return -1
}
