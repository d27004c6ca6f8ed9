package blob

import (
	"context"
	"fmt"
	"io"
)

// Store is where the upload endpoint puts attachment bytes. It hands back a
// URL, the only thing that ever travels in a post.
type Store interface {
	// Write stores content under the given key. size is the expected
	// content size (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// URL returns the public URL for a stored key.
	URL(ctx context.Context, key string) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend string      `mapstructure:"backend"` // "local" or "s3"
	Local   LocalConfig `mapstructure:"local"`
	S3      S3Config    `mapstructure:"s3"`
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.Local)
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}
