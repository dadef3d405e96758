package logsink

import "context"

// Sink is the durable commit log a transaction manager publishes to at
// commit time. Implementations must preserve append order and must not
// acknowledge Flush until every Append since the last Flush is durable.
type Sink interface {
	Append(ctx context.Context, rec Record) error
	Flush(ctx context.Context) error
}
