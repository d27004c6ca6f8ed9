package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores uploads on the filesystem; the dev server serves the base
// path as static files.
type Local struct {
	basePath  string
	publicURL string
}

// LocalConfig holds configuration for local storage.
type LocalConfig struct {
	BasePath  string `mapstructure:"base_path"`
	PublicURL string `mapstructure:"public_url"`
}

func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.BasePath == "" {
		cfg.BasePath = "./uploads"
	}
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &Local{
		basePath:  absPath,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

// fullPath returns the full filesystem path for a key, rejecting keys that
// would escape the base path.
func (s *Local) fullPath(key string) string {
	cleanKey := filepath.Clean(key)
	if cleanKey == ".." || strings.HasPrefix(cleanKey, ".."+string(os.PathSeparator)) {
		cleanKey = ""
	}
	return filepath.Join(s.basePath, cleanKey)
}

func (s *Local) Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path := s.fullPath(key)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	success = true
	return nil
}

func (s *Local) URL(ctx context.Context, key string) (string, error) {
	return s.publicURL + "/uploads/" + key, nil
}

// BasePath returns the directory uploads live under, for static serving.
func (s *Local) BasePath() string { return s.basePath }
