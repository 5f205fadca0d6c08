// Package idempotency stores responses of unit submissions keyed by the
// client-supplied Idempotency-Key, so a retried submission replays the
// original outcome instead of executing twice.
package idempotency

import (
	"context"
	"time"
)

// Record is the stored outcome of a completed submission.
type Record struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Store keeps records for a bounded retention window. Put is first-writer
// wins: a concurrent retry never overwrites the recorded outcome.
type Store interface {
	// Get returns the record for a key, or found=false when none is held.
	Get(ctx context.Context, key string) (record Record, found bool, err error)
	// Put stores the record unless one already exists for the key.
	Put(ctx context.Context, key string, record Record, ttl time.Duration) error
}
