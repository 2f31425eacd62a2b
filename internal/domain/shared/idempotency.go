package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores in-flight operation keys to prevent duplicate
// processing. The work-item poller uses it so that concurrent polls on the
// same work reference collapse into one external call.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release removes a key before its TTL expires, re-admitting the operation
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// DefaultIdempotencyTTL bounds how long an in-flight key blocks duplicates
const DefaultIdempotencyTTL = 30 * time.Second

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for stored keys. After this duration the same
	// key can be processed again.
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     DefaultIdempotencyTTL,
		Enabled: true,
	}
}
