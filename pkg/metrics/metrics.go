package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Transaction metrics
	TxnBeginsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relstore_txn_begins_total",
			Help: "Total number of transactions begun",
		},
	)

	TxnCommitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relstore_txn_commits_total",
			Help: "Total number of transactions committed",
		},
	)

	TxnAbortsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relstore_txn_aborts_total",
			Help: "Total number of transactions aborted, by reason",
		},
		[]string{"reason"},
	)

	WriteConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relstore_write_conflicts_total",
			Help: "Total number of write-write conflicts detected",
		},
	)

	TxnCommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relstore_txn_commit_duration_seconds",
			Help:    "Time taken to commit a transaction, including log sink flush",
			Buckets: prometheus.DefBuckets,
		},
	)

	ActiveTxns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relstore_active_txns",
			Help: "Number of currently live (uncommitted, unaborted) transactions",
		},
	)

	// Storage metrics
	BlocksAllocatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relstore_blocks_allocated_total",
			Help: "Total number of storage blocks allocated",
		},
	)

	TuplesInsertedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relstore_tuples_inserted_total",
			Help: "Total number of tuples inserted, by table OID",
		},
		[]string{"table_oid"},
	)

	ScanRowsReturnedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relstore_scan_rows_returned_total",
			Help: "Total number of rows returned across all scans",
		},
	)

	// GC metrics
	GCEpoch = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relstore_gc_epoch",
			Help: "Current garbage collection epoch (minimum live txn begin timestamp)",
		},
	)

	GCActionsRunTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relstore_gc_actions_run_total",
			Help: "Total number of deferred actions executed by the GC, by kind",
		},
		[]string{"kind"},
	)

	GCUndoRecordsReclaimedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relstore_gc_undo_records_reclaimed_total",
			Help: "Total number of undo records unlinked and freed by the GC",
		},
	)

	GCCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relstore_gc_cycle_duration_seconds",
			Help:    "Time taken for one perform_gc() pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Catalog / DDL metrics
	CatalogDDLCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relstore_catalog_ddl_commits_total",
			Help: "Total number of committed DDL operations, by kind",
		},
		[]string{"kind"},
	)

	CatalogDDLRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relstore_catalog_ddl_rejections_total",
			Help: "Total number of DDL operations rejected, by reason",
		},
		[]string{"reason"},
	)

	// Index metrics
	IndexInsertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relstore_index_inserts_total",
			Help: "Total number of index insertions, by index OID",
		},
		[]string{"index_oid"},
	)

	IndexDuplicateKeyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relstore_index_duplicate_key_total",
			Help: "Total number of rejected duplicate-key index insertions",
		},
	)

	// Log sink metrics
	LogSinkAppendsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relstore_logsink_appends_total",
			Help: "Total number of records appended to the log sink",
		},
	)

	LogSinkFlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relstore_logsink_flush_duration_seconds",
			Help:    "Time taken for the log sink to report durability",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	// Transaction metrics
	prometheus.MustRegister(TxnBeginsTotal)
	prometheus.MustRegister(TxnCommitsTotal)
	prometheus.MustRegister(TxnAbortsTotal)
	prometheus.MustRegister(WriteConflictsTotal)
	prometheus.MustRegister(TxnCommitDuration)
	prometheus.MustRegister(ActiveTxns)

	// Storage metrics
	prometheus.MustRegister(BlocksAllocatedTotal)
	prometheus.MustRegister(TuplesInsertedTotal)
	prometheus.MustRegister(ScanRowsReturnedTotal)

	// GC metrics
	prometheus.MustRegister(GCEpoch)
	prometheus.MustRegister(GCActionsRunTotal)
	prometheus.MustRegister(GCUndoRecordsReclaimedTotal)
	prometheus.MustRegister(GCCycleDuration)

	// Catalog metrics
	prometheus.MustRegister(CatalogDDLCommitsTotal)
	prometheus.MustRegister(CatalogDDLRejectionsTotal)

	// Index metrics
	prometheus.MustRegister(IndexInsertsTotal)
	prometheus.MustRegister(IndexDuplicateKeyTotal)

	// Log sink metrics
	prometheus.MustRegister(LogSinkAppendsTotal)
	prometheus.MustRegister(LogSinkFlushDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
