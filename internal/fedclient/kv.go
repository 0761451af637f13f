package fedclient

import "context"

// Entry is one key/value pair in the client runtime's key space.
type Entry struct {
	Key   []byte
	Value []byte
}

// Database is the transactional key-value contract the federation client
// runtime requires of its backing store. Keys and values are opaque bytes;
// ordering is bytewise on keys.
type Database interface {
	// BeginTransaction opens a write transaction. The runtime serializes its
	// own transactions, so implementations may assume at most one is open.
	BeginTransaction(ctx context.Context) (Transaction, error)

	// Checkpoint asks the store to place a consistent copy of its state at
	// path. Stores whose durability does not depend on their working files
	// may treat it as a no-op.
	Checkpoint(path string) error
}

// Transaction is one open write transaction. Reads observe committed state
// plus the transaction's own uncommitted writes.
type Transaction interface {
	// Insert writes value under key and returns the previous value, or nil.
	Insert(ctx context.Context, key, value []byte) ([]byte, error)

	// Get returns the value under key, or nil if absent.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Remove deletes key and returns the removed value, or nil.
	Remove(ctx context.Context, key []byte) ([]byte, error)

	// FindByPrefix returns all entries whose key starts with prefix, in
	// ascending key order. An empty prefix matches the whole key space.
	FindByPrefix(ctx context.Context, prefix []byte) ([]Entry, error)

	// FindByPrefixDescending is FindByPrefix in descending key order.
	FindByPrefixDescending(ctx context.Context, prefix []byte) ([]Entry, error)

	// FindByRange returns all entries with from <= key < to, ascending.
	FindByRange(ctx context.Context, from, to []byte) ([]Entry, error)

	// RemoveByPrefix deletes every entry whose key starts with prefix.
	RemoveByPrefix(ctx context.Context, prefix []byte) error

	// SetSavepoint marks the current transaction state for rollback.
	SetSavepoint(ctx context.Context) error

	// RollbackToSavepoint discards writes made since the last SetSavepoint.
	RollbackToSavepoint(ctx context.Context) error

	// Commit atomically applies the transaction's writes.
	Commit(ctx context.Context) error
}
