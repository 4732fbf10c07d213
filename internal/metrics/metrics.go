package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TradesTotal tracks executed swaps by side and outcome
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credmarket_trades_total",
			Help: "The total number of swap operations",
		},
		[]string{"side", "status"}, // buy/sell, success/failed
	)

	// LiquidityEventsTotal tracks add/remove liquidity operations
	LiquidityEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credmarket_liquidity_events_total",
			Help: "The total number of liquidity operations",
		},
		[]string{"kind", "status"}, // add/remove, success/failed
	)

	// PoolsCreatedTotal tracks pool creations
	PoolsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credmarket_pools_created_total",
		Help: "The total number of pools created",
	})

	// LedgerTxRetriesTotal tracks serialization-conflict retries
	LedgerTxRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credmarket_ledger_tx_retries_total",
		Help: "The total number of conflicted ledger transactions re-run",
	})

	// LedgerTxSeconds tracks end-to-end ledger operation latency
	LedgerTxSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "credmarket_ledger_tx_seconds",
			Help:    "Time taken to run a ledger mutation end to end",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// RecordTrade records a swap attempt with the given side and status
func RecordTrade(side, status string) {
	TradesTotal.WithLabelValues(side, status).Inc()
}

// RecordLiquidityEvent records an add/remove attempt with the given status
func RecordLiquidityEvent(kind, status string) {
	LiquidityEventsTotal.WithLabelValues(kind, status).Inc()
}

// RecordPoolCreated records a successful pool creation
func RecordPoolCreated() {
	PoolsCreatedTotal.Inc()
}

// RecordLedgerTxRetry records one conflicted transaction retry
func RecordLedgerTxRetry() {
	LedgerTxRetriesTotal.Inc()
}

// ObserveLedgerTx records the duration of one ledger operation
func ObserveLedgerTx(op string, seconds float64) {
	LedgerTxSeconds.WithLabelValues(op).Observe(seconds)
}
