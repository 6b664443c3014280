package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// LocalStorage implements the Storage interface on a filesystem
type LocalStorage struct {
	fs       afero.Fs
	basePath string
}

// NewLocalStorage creates a storage provider on the OS filesystem. Relative
// keys are resolved against basePath.
func NewLocalStorage(basePath string) *LocalStorage {
	return NewLocalStorageFs(afero.NewOsFs(), basePath)
}

// NewLocalStorageFs creates a storage provider on the given filesystem.
func NewLocalStorageFs(fs afero.Fs, basePath string) *LocalStorage {
	return &LocalStorage{fs: fs, basePath: basePath}
}

// Name returns the provider name
func (ls *LocalStorage) Name() string {
	return "local"
}

// getPath returns the full filesystem path for a key
func (ls *LocalStorage) getPath(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(ls.basePath, key)
}

// Read reads a document from the filesystem
func (ls *LocalStorage) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(ls.fs, ls.getPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Write writes a document to a temporary file and renames it into place, so
// readers never see a partially written snapshot.
func (ls *LocalStorage) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := ls.getPath(key)

	if err := ls.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + "." + uuid.New().String()[:8] + ".tmp"
	if err := afero.WriteFile(ls.fs, tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := ls.fs.Rename(tmpPath, path); err != nil {
		_ = ls.fs.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}

	log.Debug().
		Str("path", path).
		Int("size", len(data)).
		Msg("Snapshot written")

	return nil
}
