// Package media turns uploaded files into durable URLs for message attachments.
package media

import (
	"context"
	"io"
)

// Store persists one binary object and returns the URL it is served from.
type Store interface {
	Upload(ctx context.Context, r io.Reader, name, contentType string) (string, error)
}

// Remover is implemented by stores that can drop an object by URL.
type Remover interface {
	Remove(ctx context.Context, url string) error
}
