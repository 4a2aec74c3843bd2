// Package db defines the storage facade shared by the Redis/Valkey and Postgres backends.
package db

import (
	"context"
	"time"
)

// Store is the key-value facade the ledger and event log run on.
//
//nolint:interfacebloat // facade; repositories declare the narrow subset they use
type Store interface {
	Pinger
	HashStore
	KVStore
	ScriptRunner
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore keeps one account per hash.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// KVStore holds secondary indexes and processed webhook events.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetWithTTL stores value with an expiry. ttl <= 0 keeps the key forever.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ScriptRunner executes server-side Lua scripts that must run atomically.
type ScriptRunner interface {
	// RunScript evaluates src with the given keys and args and returns its integer reply.
	RunScript(ctx context.Context, src string, keys, args []string) (int64, error)
}
