// Package storage persists snapshot documents on the local filesystem or in
// S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotFound is returned by Read when no document exists under the key.
var ErrNotFound = errors.New("object not found")

// Storage defines the interface for snapshot document storage
type Storage interface {
	// Name returns the provider name
	Name() string

	// Read returns the document stored under key, or ErrNotFound
	Read(ctx context.Context, key string) ([]byte, error)

	// Write replaces the document stored under key
	Write(ctx context.Context, key string, data []byte) error
}

// S3Config holds credentials for S3-compatible storage.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Location is a parsed snapshot path.
type Location struct {
	Bucket string // empty for local paths
	Key    string
}

// IsRemote reports whether the location points at object storage.
func (l Location) IsRemote() bool {
	return l.Bucket != ""
}

// ParseLocation parses a snapshot path. "s3://bucket/key" addresses object
// storage; anything else is a local path.
func ParseLocation(path string) (Location, error) {
	if !strings.HasPrefix(path, "s3://") {
		if path == "" {
			return Location{}, fmt.Errorf("snapshot path is empty")
		}
		return Location{Key: path}, nil
	}

	u, err := url.Parse(path)
	if err != nil {
		return Location{}, fmt.Errorf("invalid snapshot location %q: %w", path, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, fmt.Errorf("invalid snapshot location %q: expected s3://bucket/key", path)
	}
	return Location{Bucket: u.Host, Key: key}, nil
}

// Open returns the storage serving path and the key of the snapshot in it.
// Local paths are resolved against root.
func Open(path, root string, s3cfg S3Config) (Storage, string, error) {
	loc, err := ParseLocation(path)
	if err != nil {
		return nil, "", err
	}
	if !loc.IsRemote() {
		return NewLocalStorage(root), loc.Key, nil
	}
	s3, err := NewS3Storage(s3cfg, loc.Bucket)
	if err != nil {
		return nil, "", err
	}
	return s3, loc.Key, nil
}
