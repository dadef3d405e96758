package logsink

import (
	"context"
	"sync"
)

// Memory is an in-process, unbounded sink. Records are never discarded
// and Flush is a no-op since nothing is buffered past Append. Used by
// tests and by `relstored bench`, where durability is not the point.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

// NewMemory returns an empty in-process sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records rec in arrival order.
func (m *Memory) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Flush is a no-op: Memory has nothing buffered past Append.
func (m *Memory) Flush(_ context.Context) error { return nil }

// Records returns a copy of everything appended so far, in order.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
