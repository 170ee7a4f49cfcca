package asset

import (
	"context"
	"errors"
	"io"
)

// Store abstrae el backend donde viven los archivos subidos.
type Store interface {
	Put(ctx context.Context, name, contentType string, body io.Reader) error
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete no falla si el archivo ya no existe.
	Delete(ctx context.Context, name string) error
}

var (
	ErrUnsupportedMedia = errors.New("only image files are allowed")
	ErrPayloadTooLarge  = errors.New("file too large (max 5MB)")
	ErrNotFound         = errors.New("asset not found")
	ErrInvalidName      = errors.New("invalid asset name")
)
