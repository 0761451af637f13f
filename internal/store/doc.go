// Package store provides SQLite-backed durable storage for the wallet.
//
// It persists:
//   - Operation ledger: one table per payment kind (lightning send/receive,
//     on-chain send/receive), keyed by operation id, with a forward-only
//     status lifecycle enforced in the UPDATE predicates.
//   - Federation snapshots: one row per federation holding the opaque
//     serialized copy of the federation client's entire key space,
//     rewritten whole on every client transaction commit.
//   - Profile, Cashu mint membership and federation metadata rows.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Consumers depend on the Storage interface, not *DB, so alternate backing
// stores are substitutable in tests.
package store
