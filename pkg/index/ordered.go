package index

import (
	"sync"

	"github.com/google/btree"

	"github.com/cuemby/relstore/pkg/storage/table"
	"github.com/cuemby/relstore/pkg/txn"
)

// item is one (key, slot) entry in an Ordered tree. Equal keys are
// tie-broken by slot identity so that duplicate-key entries remain
// distinct nodes instead of colliding under ReplaceOrInsert. A zero
// slot, as carried by a key-only search pivot, sorts before every real
// slot under the same key.
type item struct {
	key  Key
	slot table.Slot
}

func itemLess(a, b item) bool {
	if c := a.key.Compare(b.key); c != 0 {
		return c < 0
	}
	if a.slot.IsZero() || b.slot.IsZero() {
		return a.slot.IsZero() && !b.slot.IsZero()
	}
	if a.slot.BlockID() != b.slot.BlockID() {
		return a.slot.BlockID() < b.slot.BlockID()
	}
	return a.slot.Offset() < b.slot.Offset()
}

// Ordered is a btree-backed index supporting range scans in addition
// to equality lookup. Suitable for indexes whose queries include
// ordered or bounded range predicates.
type Ordered struct {
	dt *table.DataTable

	mu sync.RWMutex
	t  *btree.BTreeG[item]
}

// NewOrdered builds an Ordered index whose ScanKey and range-scan
// visibility checks consult dt.
func NewOrdered(dt *table.DataTable) *Ordered {
	return &Ordered{dt: dt, t: btree.NewG(32, itemLess)}
}

// Insert adds (key, slot) unconditionally.
func (idx *Ordered) Insert(key Key, slot table.Slot) bool {
	idx.mu.Lock()
	idx.t.ReplaceOrInsert(item{key: key, slot: slot})
	idx.mu.Unlock()
	return true
}

// InsertUnique adds (key, slot) only if key currently indexes nothing.
// As with Unordered, this is a coarse, non-transactional check; use
// ConditionalInsert for MVCC-aware uniqueness.
func (idx *Ordered) InsertUnique(key Key, slot table.Slot) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.hasKeyLocked(key) {
		return false
	}
	idx.t.ReplaceOrInsert(item{key: key, slot: slot})
	return true
}

func (idx *Ordered) hasKeyLocked(key Key) bool {
	found := false
	idx.t.AscendGreaterOrEqual(item{key: key}, func(it item) bool {
		found = it.key.Compare(key) == 0
		return false
	})
	return found
}

// ConditionalInsert tests every slot currently indexed under key
// against predicate before inserting, under the index's write lock.
func (idx *Ordered) ConditionalInsert(key Key, slot table.Slot, predicate func(table.Slot) bool) (inserted bool, predicateSatisfied bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, s := range idx.entriesForLocked(key) {
		if predicate(s) {
			return false, true
		}
	}
	idx.t.ReplaceOrInsert(item{key: key, slot: slot})
	return true, false
}

// Delete removes exactly the (key, slot) pair, if present.
func (idx *Ordered) Delete(key Key, slot table.Slot) {
	idx.mu.Lock()
	idx.t.Delete(item{key: key, slot: slot})
	idx.mu.Unlock()
}

func (idx *Ordered) entriesForLocked(key Key) []table.Slot {
	var out []table.Slot
	idx.t.AscendGreaterOrEqual(item{key: key}, func(it item) bool {
		if it.key.Compare(key) != 0 {
			return false
		}
		out = append(out, it.slot)
		return true
	})
	return out
}

// ScanKey returns every slot indexed under key whose current version
// is visible to t.
func (idx *Ordered) ScanKey(t *txn.Txn, key Key) []table.Slot {
	idx.mu.RLock()
	candidates := idx.entriesForLocked(key)
	idx.mu.RUnlock()

	var out []table.Slot
	for _, s := range candidates {
		if idx.dt.IsVisible(t, s) {
			out = append(out, s)
		}
	}
	return out
}

// ScanAscending returns, in ascending key order, the slots visible to
// t whose key lies in [lower, upper) when both bounds are non-nil; a
// nil lower or upper leaves that side unbounded. limit caps the
// number of returned slots; zero means unbounded.
func (idx *Ordered) ScanAscending(t *txn.Txn, lower, upper Key, limit int) []table.Slot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []table.Slot
	visit := func(it item) bool {
		if upper != nil && it.key.Compare(upper) >= 0 {
			return false
		}
		if idx.dt.IsVisible(t, it.slot) {
			out = append(out, it.slot)
		}
		return limit == 0 || len(out) < limit
	}
	if lower != nil {
		idx.t.AscendGreaterOrEqual(item{key: lower}, visit)
	} else {
		idx.t.Ascend(visit)
	}
	return out
}

// ScanDescending returns, in descending key order, the slots visible
// to t whose key lies in (lower, upper] when both bounds are non-nil;
// a nil lower or upper leaves that side unbounded. limit caps the
// number of returned slots; zero means unbounded.
func (idx *Ordered) ScanDescending(t *txn.Txn, lower, upper Key, limit int) []table.Slot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []table.Slot
	visit := func(it item) bool {
		if upper != nil && it.key.Compare(upper) > 0 {
			return true
		}
		if lower != nil && it.key.Compare(lower) <= 0 {
			return false
		}
		if idx.dt.IsVisible(t, it.slot) {
			out = append(out, it.slot)
		}
		return limit == 0 || len(out) < limit
	}
	idx.t.Descend(visit)
	return out
}
