package table

import (
	"sync/atomic"

	"github.com/cuemby/relstore/pkg/storage/row"
	"github.com/cuemby/relstore/pkg/txn"
)

// UndoRecord is one entry in a slot's version chain: the before-image
// of an update, a marker for an insert that has not yet committed, or
// a tombstone for a delete — together with the installing transaction
// and a forward pointer to the next-older entry. Chains are newest
// first: the head is always the most recently installed write.
//
// next is an atomic.Pointer rather than a plain field because the
// vacuum pass (DataTable.Vacuum) trims it concurrently with readers
// walking the chain via Select/IsVisible; writers themselves only ever
// read it (as the next pointer of a brand-new head), never mutate it.
type UndoRecord struct {
	installer *txn.Txn
	next      atomic.Pointer[UndoRecord]
	tombstone bool
	before    *row.ProjectedRow // nil for inserts and deletes
}

// Installer is the transaction that installed this version.
func (u *UndoRecord) Installer() *txn.Txn { return u.installer }

// Tombstone reports whether this version is a delete marker.
func (u *UndoRecord) Tombstone() bool { return u.tombstone }

// chainHeads is the per-block array of version-chain heads, one per
// slot, allocated lazily the first time a block is written to.
type chainHeads struct {
	arr []atomic.Pointer[UndoRecord]
}

func newChainHeads(numSlots uint32) *chainHeads {
	return &chainHeads{arr: make([]atomic.Pointer[UndoRecord], numSlots)}
}
