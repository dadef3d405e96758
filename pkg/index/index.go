package index

import (
	"github.com/cuemby/relstore/pkg/storage/table"
	"github.com/cuemby/relstore/pkg/txn"
)

// Index maps caller-defined keys to tuple slots. Insert/InsertUnique/
// ConditionalInsert/Delete operate on the index's own entries, with no
// transactional context; ScanKey is the one operation that filters by
// MVCC visibility, consulting the owning data table under the caller's
// transaction.
type Index interface {
	// Insert adds (key, slot) unconditionally; duplicate keys are
	// allowed.
	Insert(key Key, slot table.Slot) bool
	// InsertUnique adds (key, slot) only if no entry is currently
	// indexed under key.
	InsertUnique(key Key, slot table.Slot) bool
	// ConditionalInsert atomically tests every slot currently indexed
	// under key against predicate. If any satisfies it, it returns
	// (false, true) without inserting; otherwise it inserts and
	// returns (true, false).
	ConditionalInsert(key Key, slot table.Slot, predicate func(table.Slot) bool) (inserted bool, predicateSatisfied bool)
	// Delete removes exactly the (key, slot) pair.
	Delete(key Key, slot table.Slot)
	// ScanKey returns every slot indexed under key whose current
	// version is visible to t.
	ScanKey(t *txn.Txn, key Key) []table.Slot
}
