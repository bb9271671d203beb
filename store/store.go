// Package store is the key-value side of the lock protocol: the two atomic
// primitives (create-if-absent with a lease, delete-if-equal) plus plain
// reads and writes over a pooled Redis client.
package store

import (
	"context"
	"time"
)

type PoolStats struct {
	Hits       uint32
	Misses     uint32
	Timeouts   uint32
	TotalConns uint32
	IdleConns  uint32
	StaleConns uint32
}

type Store interface {
	// CreateIfAbsent sets key to value with the given lease only if key does not exist.
	CreateIfAbsent(ctx context.Context, key, value string, lease time.Duration) (bool, error)
	// DeleteIfEquals deletes key only if its current value is value.
	DeleteIfEquals(ctx context.Context, key, value string) (bool, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Stats() PoolStats
}
