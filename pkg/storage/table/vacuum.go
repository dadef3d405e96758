package table

import (
	"sync/atomic"

	"github.com/cuemby/relstore/pkg/storage/block"
)

// Vacuum implements GC responsibility 1 over this table: for every
// slot, it walks the version chain from the head until it reaches a
// version whose installer committed before epoch — the GC epoch being
// the oldest begin timestamp any live transaction could still hold, no
// such version can ever again be the one a reader needs, so everything
// chained behind it is unreachable and gets unlinked in one step. A
// dead slot (its sole remaining version is a tombstone already below
// epoch) has its presence bit cleared too, finally giving
// block.ClearPresent a caller.
//
// It returns the number of slots whose chain was trimmed or cleared,
// for the caller to fold into a reclamation metric.
func (dt *DataTable) Vacuum(epoch uint64) int {
	reclaimed := 0
	for _, b := range dt.store.Blocks() {
		heads := dt.headsFor(b)
		head := b.InsertHead()
		for offset := uint32(0); offset < head; offset++ {
			reclaimed += vacuumSlot(b, offset, &heads.arr[offset], epoch)
		}
	}
	return reclaimed
}

func vacuumSlot(b *block.Block, offset uint32, headPtr *atomic.Pointer[UndoRecord], epoch uint64) int {
	head := headPtr.Load()
	if head == nil {
		return 0
	}

	cur := head
	for cur != nil && !belowEpoch(cur, epoch) {
		cur = cur.next.Load()
	}
	if cur == nil {
		return 0
	}

	if cur == head && cur.tombstone {
		if !headPtr.CompareAndSwap(head, nil) {
			return 0
		}
		b.ClearPresent(offset)
		return 1
	}

	if cur.next.Load() == nil {
		return 0
	}
	cur.next.Store(nil)
	return 1
}

func belowEpoch(u *UndoRecord, epoch uint64) bool {
	if !u.installer.Committed() {
		return false
	}
	finishTS, _ := u.installer.FinishTS()
	return finishTS < epoch
}
