package database

import "sync"

// Handle is a monotonic index into a database's handle arena. It
// replaces the raw pointers spec.md's §9 "Raw pointer catalog
// entries" re-architecture flags: pg_class.schema-ptr and
// pg_class.object-ptr store a Handle (as a plain uint64) rather than
// an address, so the catalog row itself never outlives, or embeds
// unsafe knowledge of, the Go object it names.
type Handle uint64

// InvalidHandle never names a live object.
const InvalidHandle Handle = 0

// HandleArena hands out Handles for arbitrary Go values and resolves
// them back, scoped to one open Database. It never reuses a Handle
// once issued, even after Release, so a stale Handle read from a
// catalog row that outlived its object fails Lookup instead of
// aliasing an unrelated later object.
type HandleArena struct {
	mu      sync.RWMutex
	objects []any // index 0 is unused; objects[h] holds Handle(h)'s value
}

// NewHandleArena builds an empty arena.
func NewHandleArena() *HandleArena {
	return &HandleArena{objects: make([]any, 1)} // reserve index 0 for InvalidHandle
}

// Register allocates a fresh Handle for obj.
func (a *HandleArena) Register(obj any) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects = append(a.objects, obj)
	return Handle(len(a.objects) - 1)
}

// Lookup resolves h to the object registered under it, reporting false
// if h is InvalidHandle, out of range, or has been released.
func (a *HandleArena) Lookup(h Handle) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if h == InvalidHandle || int(h) >= len(a.objects) {
		return nil, false
	}
	obj := a.objects[h]
	return obj, obj != nil
}

// Release clears h's slot so its memory can be collected once the GC
// epoch proves no concurrent lookup can still observe the handle; it
// does not reuse the index.
func (a *HandleArena) Release(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h != InvalidHandle && int(h) < len(a.objects) {
		a.objects[h] = nil
	}
}
