package logsink

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-msgpack/codec"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
)

// Bolt is a durable sink backed by hashicorp/raft-boltdb's LogStore.
// relstore never runs raft's consensus machinery; it reuses the store
// purely as a durable, ordered, crash-safe append log, keyed by commit
// timestamp instead of a raft log index. Records are encoded with
// go-msgpack the same way raft itself encodes its own log entries.
type Bolt struct {
	store *raftboltdb.BoltStore
}

// OpenBolt opens or creates a bbolt-backed log file at path.
func OpenBolt(path string) (*Bolt, error) {
	store, err := raftboltdb.NewBoltStore(path)
	if err != nil {
		return nil, fmt.Errorf("logsink: open bolt store: %w", err)
	}
	return &Bolt{store: store}, nil
}

// Close releases the underlying bbolt file handle.
func (b *Bolt) Close() error { return b.store.Close() }

// Append stores rec keyed by its commit timestamp (or, for a commit
// record, the commit timestamp it closes out).
func (b *Bolt) Append(_ context.Context, rec Record) error {
	var buf []byte
	h := &codec.MsgpackHandle{}
	enc := codec.NewEncoderBytes(&buf, h)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("logsink: encode record: %w", err)
	}

	index := rec.CommitTS
	log := &raft.Log{
		Index: index,
		Term:  1,
		Type:  raft.LogCommand,
		Data:  buf,
	}
	if err := b.store.StoreLog(log); err != nil {
		return fmt.Errorf("logsink: store log: %w", err)
	}
	return nil
}

// Flush is a no-op: bbolt commits (and fsyncs, per its default config)
// synchronously inside StoreLog's underlying transaction.
func (b *Bolt) Flush(_ context.Context) error { return nil }

// Get decodes the record stored at commit timestamp ts, for recovery.
func (b *Bolt) Get(ts uint64) (Record, error) {
	var log raft.Log
	if err := b.store.GetLog(ts, &log); err != nil {
		return Record{}, fmt.Errorf("logsink: get log: %w", err)
	}
	var rec Record
	h := &codec.MsgpackHandle{}
	dec := codec.NewDecoderBytes(log.Data, h)
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("logsink: decode record: %w", err)
	}
	return rec, nil
}

// FirstTimestamp and LastTimestamp expose the store's retained range,
// used by recovery to replay the log from the correct point.
func (b *Bolt) FirstTimestamp() (uint64, error) { return b.store.FirstIndex() }
func (b *Bolt) LastTimestamp() (uint64, error)  { return b.store.LastIndex() }
