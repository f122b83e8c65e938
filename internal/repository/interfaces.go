package repository

import "context"

// BlobStore is a key-value store holding one serialized blob per key.
// Get returns ErrNotFound when the key has never been written.
// Put replaces the blob wholesale.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
