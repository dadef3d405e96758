package database

import (
	"time"

	"github.com/cuemby/relstore/pkg/logsink"
)

// Config is the set of knobs needed to open a Database. It is loaded
// from YAML by cmd/relstored and may also be built directly by tests.
type Config struct {
	// BlockSize is the size, in bytes, of every block.Store block this
	// database's tables allocate. Defaults to 1 MiB if zero.
	BlockSize uint32 `yaml:"block_size"`

	// DataDir names a directory for a durable LogSink's files. Open does
	// not read it; a durable sink is opened by the caller and passed in
	// LogSink.
	DataDir string `yaml:"data_dir"`

	// LogSink is the commit-log sink new transactions publish to. If
	// nil, Open constructs a logsink.Memory, matching cmd/relstored's
	// "bench" mode default.
	LogSink logsink.Sink `yaml:"-"`

	// DDLLockPollInterval bounds how long a caller's retry loop should
	// wait after an ErrDdlLockRejection before reattempting a DDL
	// operation. relstore itself never retries automatically — this is
	// advisory configuration for callers that want one.
	DDLLockPollInterval time.Duration `yaml:"ddl_lock_poll_interval"`
}

// DefaultBlockSize matches the teacher's own default buffer size order
// of magnitude and spec.md's "block" being sized for a modest batch of
// tuples per allocation.
const DefaultBlockSize uint32 = 1 << 20

func (c Config) blockSize() uint32 {
	if c.BlockSize == 0 {
		return DefaultBlockSize
	}
	return c.BlockSize
}
