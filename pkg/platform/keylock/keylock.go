// Package keylock provides fine-grained mutual exclusion keyed by entity ID.
// Instead of a single global lock, operations are distributed across N shards
// based on a hash of the key, reducing contention under concurrent load.
//
// The schedule validator and the leave ledger share one Sharded instance keyed
// by staff ID: a leave approval and a schedule assignment for the same staff
// member serialize against each other, while unrelated staff proceed in
// parallel.
package keylock

import (
	"context"
	"sync"
	"time"

	dErrors "practiceops/pkg/domain-errors"
)

const numShards = 128

// defaultTimeout bounds how long a caller may hold or wait on a shard.
const defaultTimeout = 5 * time.Second

type Sharded struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func New() *Sharded {
	return &Sharded{timeout: defaultTimeout}
}

// Do runs fn while holding the shard for key. The context is checked before
// and after acquiring the lock so cancelled requests do not run at all.
func (s *Sharded) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	shard := int(hashString(key) % numShards)
	s.shards[shard].Lock()
	defer s.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "aborted: context cancelled")
	}

	return fn(ctx)
}

// hashString uses FNV-1a for even shard distribution.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
