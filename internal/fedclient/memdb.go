package fedclient

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// memStore is the in-memory working copy of one federation's key space. All
// reads during normal operation are served from here; durability comes from
// snapshotting the whole store on every transaction commit.
type memStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

// load replaces the store contents with the given entries.
func (m *memStore) load(entries []Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte, len(entries))
	for _, e := range entries {
		m.data[string(e.Key)] = append([]byte(nil), e.Value...)
	}
}

// snapshot returns every entry in ascending key order.
func (m *memStore) snapshot() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]Entry, 0, len(m.data))
	for k, v := range m.data {
		entries = append(entries, Entry{Key: []byte(k), Value: append([]byte(nil), v...)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})
	return entries
}

// memTx is an overlay transaction on a memStore. Writes stay in pending
// until Commit; a nil pending value marks a deletion.
type memTx struct {
	store     *memStore
	pending   map[string][]byte
	deleted   map[string]bool
	savepoint *txState
	done      bool
}

type txState struct {
	pending map[string][]byte
	deleted map[string]bool
}

func (m *memStore) begin() *memTx {
	return &memTx{
		store:   m,
		pending: make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

func (t *memTx) Insert(ctx context.Context, key, value []byte) ([]byte, error) {
	prev, _ := t.Get(ctx, key)
	k := string(key)
	t.pending[k] = append([]byte(nil), value...)
	delete(t.deleted, k)
	return prev, nil
}

func (t *memTx) Get(_ context.Context, key []byte) ([]byte, error) {
	k := string(key)
	if t.deleted[k] {
		return nil, nil
	}
	if v, ok := t.pending[k]; ok {
		return append([]byte(nil), v...), nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if v, ok := t.store.data[k]; ok {
		return append([]byte(nil), v...), nil
	}
	return nil, nil
}

func (t *memTx) Remove(ctx context.Context, key []byte) ([]byte, error) {
	prev, _ := t.Get(ctx, key)
	k := string(key)
	delete(t.pending, k)
	t.deleted[k] = true
	return prev, nil
}

func (t *memTx) FindByPrefix(ctx context.Context, prefix []byte) ([]Entry, error) {
	return t.scan(func(k []byte) bool { return bytes.HasPrefix(k, prefix) }, false), nil
}

func (t *memTx) FindByPrefixDescending(ctx context.Context, prefix []byte) ([]Entry, error) {
	return t.scan(func(k []byte) bool { return bytes.HasPrefix(k, prefix) }, true), nil
}

func (t *memTx) FindByRange(ctx context.Context, from, to []byte) ([]Entry, error) {
	return t.scan(func(k []byte) bool {
		return bytes.Compare(k, from) >= 0 && bytes.Compare(k, to) < 0
	}, false), nil
}

func (t *memTx) RemoveByPrefix(ctx context.Context, prefix []byte) error {
	entries, _ := t.FindByPrefix(ctx, prefix)
	for _, e := range entries {
		if _, err := t.Remove(ctx, e.Key); err != nil {
			return err
		}
	}
	return nil
}

// scan merges committed state with the transaction overlay and returns the
// matching entries sorted by key.
func (t *memTx) scan(match func(key []byte) bool, descending bool) []Entry {
	merged := make(map[string][]byte)
	t.store.mu.RLock()
	for k, v := range t.store.data {
		merged[k] = v
	}
	t.store.mu.RUnlock()
	for k, v := range t.pending {
		merged[k] = v
	}
	for k := range t.deleted {
		delete(merged, k)
	}

	var entries []Entry
	for k, v := range merged {
		if match([]byte(k)) {
			entries = append(entries, Entry{Key: []byte(k), Value: append([]byte(nil), v...)})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		less := bytes.Compare(entries[i].Key, entries[j].Key) < 0
		if descending {
			return !less
		}
		return less
	})
	return entries
}

func (t *memTx) SetSavepoint(context.Context) error {
	t.savepoint = &txState{
		pending: copyBytesMap(t.pending),
		deleted: copyBoolMap(t.deleted),
	}
	return nil
}

func (t *memTx) RollbackToSavepoint(context.Context) error {
	if t.savepoint == nil {
		t.pending = make(map[string][]byte)
		t.deleted = make(map[string]bool)
		return nil
	}
	t.pending = copyBytesMap(t.savepoint.pending)
	t.deleted = copyBoolMap(t.savepoint.deleted)
	return nil
}

// commit applies the overlay to the backing store.
func (t *memTx) commit() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for k := range t.deleted {
		delete(t.store.data, k)
	}
	for k, v := range t.pending {
		t.store.data[k] = v
	}
	t.done = true
}

func copyBytesMap(src map[string][]byte) map[string][]byte {
	dst := make(map[string][]byte, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyBoolMap(src map[string]bool) map[string]bool {
	dst := make(map[string]bool, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
