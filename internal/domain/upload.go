package domain

import (
	"context"
	"io"
)

// ImageUploader загружает снимок и возвращает публичный URL.
type ImageUploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}
