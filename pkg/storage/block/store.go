package block

import (
	"sync/atomic"

	"github.com/cuemby/relstore/pkg/metrics"
)

// Store owns the singly linked list of blocks backing one layout. New
// blocks are installed with a compare-and-swap on the list's tail, so
// concurrent inserters never block on a mutex to grow the table.
type Store struct {
	layout     *Layout
	blockSize  uint32
	head       atomic.Pointer[blockNode]
	tail       atomic.Pointer[blockNode]
	nextID     atomic.Uint64
	reuseLimit int
	freeList   chan *Block
}

type blockNode struct {
	block *Block
	next  atomic.Pointer[blockNode]
}

// NewStore creates a store with one initial block already installed.
// reuseLimit bounds the free list of reclaimed blocks the GC returns
// via Free; once the pool is full, reclaimed blocks are dropped for
// the Go runtime to collect.
func NewStore(layout *Layout, blockSize uint32, reuseLimit int) *Store {
	if blockSize == 0 {
		blockSize = DefaultSize
	}
	if reuseLimit <= 0 {
		reuseLimit = 1
	}
	s := &Store{
		layout:     layout,
		blockSize:  blockSize,
		reuseLimit: reuseLimit,
		freeList:   make(chan *Block, reuseLimit),
	}
	node := &blockNode{block: s.allocateBlock()}
	s.head.Store(node)
	s.tail.Store(node)
	return s
}

func (s *Store) allocateBlock() *Block {
	select {
	case b := <-s.freeList:
		b.reset()
		metrics.BlocksAllocatedTotal.Inc()
		return b
	default:
	}
	id := s.nextID.Add(1)
	metrics.BlocksAllocatedTotal.Inc()
	return newBlock(id, s.layout, s.blockSize)
}

// Free returns a block to the reuse pool. Only the GC calls this, and
// only once no live transaction can still observe the block.
func (s *Store) Free(b *Block) {
	select {
	case s.freeList <- b:
	default:
	}
}

// Reserve finds or creates room for one new tuple, returning the block
// and slot offset the caller should write into. The slot is reserved
// (insert_head advanced) but not yet marked present; the caller marks
// it present after writing the tuple's initial version.
func (s *Store) Reserve() (*Block, uint32) {
	for {
		tail := s.tail.Load()
		if offset, ok := tail.block.reserveSlot(); ok {
			return tail.block, offset
		}
		next := tail.next.Load()
		if next == nil {
			candidate := &blockNode{block: s.allocateBlock()}
			if tail.next.CompareAndSwap(nil, candidate) {
				s.tail.CompareAndSwap(tail, candidate)
				continue
			}
			continue
		}
		s.tail.CompareAndSwap(tail, next)
	}
}

// Blocks returns every block currently linked into the store, oldest
// first, for use by scan iterators.
func (s *Store) Blocks() []*Block {
	var out []*Block
	for n := s.head.Load(); n != nil; n = n.next.Load() {
		out = append(out, n.block)
	}
	return out
}

// Layout returns the layout this store's blocks were allocated for.
func (s *Store) Layout() *Layout { return s.layout }
