package fedclient

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/harborwallet/harbor/internal/store"
)

// SnapshotBridge adapts a federation snapshot row in the wallet database to
// the Database contract the client runtime requires.
//
// The live key space is held in memory; every transaction commit serializes
// the entire post-commit key space and rewrites the federation's value row.
// Loading is the reverse: the row is decoded once at construction and never
// read again while the bridge is alive.
type SnapshotBridge struct {
	storage      store.Storage
	federationID string
	mem          *memStore
}

// NewSnapshotBridge opens the snapshot row for federationID. If the row
// exists its blob is decoded into the working store and the federation is
// reactivated. If it does not exist, a fresh empty row is created; this
// requires inviteCode, and store.ErrMissingInviteCode is returned without
// one.
func NewSnapshotBridge(storage store.Storage, federationID, inviteCode string) (*SnapshotBridge, error) {
	b := &SnapshotBridge{
		storage:      storage,
		federationID: federationID,
		mem:          newMemStore(),
	}

	blob, ok, err := storage.GetFederationValue(federationID)
	if err != nil {
		return nil, fmt.Errorf("load federation snapshot: %w", err)
	}
	if ok {
		entries, err := decodeSnapshot(blob)
		if err != nil {
			return nil, fmt.Errorf("decode federation snapshot: %w", err)
		}
		b.mem.load(entries)
		if err := storage.SetFederationActive(federationID); err != nil {
			return nil, err
		}
		return b, nil
	}

	if inviteCode == "" {
		return nil, store.ErrMissingInviteCode
	}
	if err := storage.InsertNewFederation(federationID, inviteCode); err != nil {
		return nil, err
	}
	return b, nil
}

// BeginTransaction opens a write transaction whose Commit persists the full
// snapshot.
func (b *SnapshotBridge) BeginTransaction(_ context.Context) (Transaction, error) {
	return &snapshotTx{bridge: b, memTx: b.mem.begin()}, nil
}

// Checkpoint is a no-op: the snapshot row in the wallet database is already
// the durable copy, so there is no working file to relocate.
func (b *SnapshotBridge) Checkpoint(string) error {
	return nil
}

type snapshotTx struct {
	bridge *SnapshotBridge
	*memTx
}

// Commit captures the transaction's view of the whole key space, applies the
// writes to the working store, and rewrites the snapshot row. A failed write
// leaves the durable row at the previous snapshot.
func (t *snapshotTx) Commit(ctx context.Context) error {
	entries, err := t.FindByPrefix(ctx, nil)
	if err != nil {
		return err
	}
	t.memTx.commit()

	blob, err := encodeSnapshot(entries)
	if err != nil {
		return fmt.Errorf("encode federation snapshot: %w", err)
	}
	if err := t.bridge.storage.UpdateFederationValue(t.bridge.federationID, blob); err != nil {
		return fmt.Errorf("persist federation snapshot: %w", err)
	}
	return nil
}

// snapshotEntry is the gob wire form of one key/value pair.
type snapshotEntry struct {
	Key   []byte
	Value []byte
}

func encodeSnapshot(entries []Entry) ([]byte, error) {
	pairs := make([]snapshotEntry, len(entries))
	for i, e := range entries {
		pairs[i] = snapshotEntry{Key: e.Key, Value: e.Value}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(pairs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSnapshot(blob []byte) ([]Entry, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var pairs []snapshotEntry
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&pairs); err != nil {
		return nil, err
	}
	entries := make([]Entry, len(pairs))
	for i, p := range pairs {
		entries[i] = Entry{Key: p.Key, Value: p.Value}
	}
	return entries, nil
}
