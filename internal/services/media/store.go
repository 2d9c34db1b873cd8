package media

import (
	"context"
	"io"
)

// Object is a readable stored blob. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store is the object storage backend.
type Store interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	Put(ctx context.Context, key, contentType string, body []byte) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	// KeyFromURL maps a stored public or proxy URL back to its key.
	KeyFromURL(rawURL string) (string, bool)
}
