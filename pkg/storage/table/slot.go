package table

import "github.com/cuemby/relstore/pkg/storage/block"

// Slot addresses one tuple: a block and a slot index within it. It is a
// runtime handle, not a persisted identifier — the log sink records the
// underlying block ID and offset instead of this struct.
type Slot struct {
	block  *block.Block
	offset uint32
}

// BlockID is the stable numeric identifier of the slot's owning block,
// suitable for serialization.
func (s Slot) BlockID() uint64 { return s.block.ID }

// Offset is the slot's index within its block.
func (s Slot) Offset() uint32 { return s.offset }

// IsZero reports whether s is the zero Slot (never a valid handle).
func (s Slot) IsZero() bool { return s.block == nil }
