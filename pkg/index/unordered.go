package index

import (
	"sync"

	"github.com/cuemby/relstore/pkg/storage/table"
	"github.com/cuemby/relstore/pkg/txn"
)

// Unordered is a map-backed equality index: O(1) insert/delete/lookup,
// no range scans. Suitable for primary and unique-constraint indexes
// that are only ever probed by exact key.
type Unordered struct {
	dt *table.DataTable

	mu sync.RWMutex
	m  map[string][]table.Slot
}

// NewUnordered builds an Unordered index whose ScanKey visibility
// checks consult dt.
func NewUnordered(dt *table.DataTable) *Unordered {
	return &Unordered{dt: dt, m: make(map[string][]table.Slot)}
}

// Insert adds (key, slot) unconditionally.
func (idx *Unordered) Insert(key Key, slot table.Slot) bool {
	k := string(key.Bytes())
	idx.mu.Lock()
	idx.m[k] = append(idx.m[k], slot)
	idx.mu.Unlock()
	return true
}

// InsertUnique adds (key, slot) only if key currently indexes nothing.
// This is a coarse, non-transactional check: it rejects a reinsert
// under a key that still has entries even if every one of them belongs
// to a version the caller's transaction cannot see. Real uniqueness
// enforcement across MVCC snapshots is ConditionalInsert's job.
func (idx *Unordered) InsertUnique(key Key, slot table.Slot) bool {
	k := string(key.Bytes())
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if len(idx.m[k]) > 0 {
		return false
	}
	idx.m[k] = append(idx.m[k], slot)
	return true
}

// ConditionalInsert tests every slot currently indexed under key
// against predicate before inserting, all under the index's write
// lock, so the test-and-insert is atomic with respect to concurrent
// indexers of the same key.
func (idx *Unordered) ConditionalInsert(key Key, slot table.Slot, predicate func(table.Slot) bool) (inserted bool, predicateSatisfied bool) {
	k := string(key.Bytes())
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, s := range idx.m[k] {
		if predicate(s) {
			return false, true
		}
	}
	idx.m[k] = append(idx.m[k], slot)
	return true, false
}

// Delete removes exactly the (key, slot) pair, if present.
func (idx *Unordered) Delete(key Key, slot table.Slot) {
	k := string(key.Bytes())
	idx.mu.Lock()
	defer idx.mu.Unlock()
	entries := idx.m[k]
	for i, s := range entries {
		if s.BlockID() == slot.BlockID() && s.Offset() == slot.Offset() {
			entries[i] = entries[len(entries)-1]
			idx.m[k] = entries[:len(entries)-1]
			break
		}
	}
	if len(idx.m[k]) == 0 {
		delete(idx.m, k)
	}
}

// ScanKey returns every slot indexed under key whose current version
// is visible to t.
func (idx *Unordered) ScanKey(t *txn.Txn, key Key) []table.Slot {
	k := string(key.Bytes())
	idx.mu.RLock()
	candidates := append([]table.Slot(nil), idx.m[k]...)
	idx.mu.RUnlock()

	var out []table.Slot
	for _, s := range candidates {
		if idx.dt.IsVisible(t, s) {
			out = append(out, s)
		}
	}
	return out
}
