package persistence

import (
	"context"
	"io"
)

// Store persists and retrieves fitted Records by key, the way
// go-strats/pkg/persistence.Persister abstracts over a direct-pgx client
// and a gRPC client: callers code against this interface, not against a
// specific backend.
type Store interface {
	// Save writes rec under key, overwriting any record previously
	// saved under the same key.
	Save(ctx context.Context, key string, rec *Record) error
	// Load reads back the record saved under key. Returns ErrNotFound
	// if no record exists for key.
	Load(ctx context.Context, key string) (*Record, error)
	// Delete removes the record saved under key, if any.
	Delete(ctx context.Context, key string) error
	io.Closer
}
