// Package blob stores uploaded bundle files keyed by opaque storage id.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned (possibly wrapped) when a key has no object.
var ErrNotFound = errors.New("blob: not found")

// MaxObjectBytes bounds a single read. Bundles are capped at 50MB total.
const MaxObjectBytes = 50 << 20

type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

func readAllBounded(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxObjectBytes {
		return nil, fmt.Errorf("blob: object exceeds %d bytes", MaxObjectBytes)
	}
	return data, nil
}
