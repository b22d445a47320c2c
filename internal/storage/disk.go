package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/kazoeru/internal/models"
)

// Artifact names a path whose size Footprint should measure.
type Artifact struct {
	Name string
	Path string
}

// Footprint measures each artifact (file or directory tree) and returns the
// per-artifact sizes with their total. Empty paths are skipped.
func Footprint(artifacts ...Artifact) ([]models.ArtifactUsage, int64, error) {
	usages := make([]models.ArtifactUsage, 0, len(artifacts))
	var total int64
	for _, a := range artifacts {
		if a.Path == "" {
			continue
		}
		u := models.ArtifactUsage{Name: a.Name, Path: a.Path}
		n, err := sizeOf(a.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, 0, err
		default:
			u.Bytes, u.Exists = n, true
		}
		total += u.Bytes
		usages = append(usages, u)
	}
	return usages, total, nil
}

func sizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
