// Package metadata stores small key-value preferences outside the entity
// tables: the sync watermark and the configured PIN credential.
package metadata

import "context"

// Well-known keys.
const (
	// KeyLastSyncAt holds the sync watermark: an RFC 3339 timestamp up to
	// which server-side changes have been fully pulled.
	KeyLastSyncAt = "last_sync_at"

	// KeyAuthPin holds the opaque bearer credential for the sync API.
	KeyAuthPin = "auth_pin"
)

// Repository describes a plain key-value store. Get returns (nil, nil) for
// a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
