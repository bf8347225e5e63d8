package repository

import "context"

// KVStore is the durable key/value storage behind client-side caches.
// Get reports a missing key with ok == false and a nil error.
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
