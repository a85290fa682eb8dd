package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ledgersync/logx"
)

type TxSkippedReason string

var (
	TxBadEncoding       TxSkippedReason = "bad_encoding"
	TxBadPayload        TxSkippedReason = "bad_payload"
	TxUnknownAction     TxSkippedReason = "unknown_action"
	TxMissingField      TxSkippedReason = "missing_field"
	TxBadAddress        TxSkippedReason = "bad_address"
	TxInsufficientFunds TxSkippedReason = "insufficient_funds"
)

type ValidationOutcome string

var (
	ValidationCommitted  ValidationOutcome = "committed"
	ValidationRolledBack ValidationOutcome = "rolled_back"
	ValidationSkipped    ValidationOutcome = "skipped"
	ValidationErrored    ValidationOutcome = "errored"
)

type nodePromMetrics struct {
	nodeUpUnixSeconds prometheus.Gauge
	appliedTxCount    prometheus.Counter
	skippedTxCount    *prometheus.CounterVec
	validationRounds  *prometheus.CounterVec
	peerQueryErrors   prometheus.Counter
	checkpointHeight  prometheus.Gauge
	feedPosition      prometheus.Gauge
	panicCount        prometheus.Counter
}

func newNodePromMetrics() *nodePromMetrics {
	return &nodePromMetrics{
		nodeUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledgersync_node_up_timestamp_unix_seconds",
				Help: "Unix timestamp of the node",
			},
		),
		appliedTxCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ledgersync_node_applied_tx_count",
				Help: "The total number of feed transactions applied to the ledger",
			},
		),
		skippedTxCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_node_skipped_tx_count",
				Help: "The total number of feed transactions skipped",
			},
			[]string{"reason"},
		),
		validationRounds: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_node_validation_round_count",
				Help: "The total number of checkpoint validation rounds by outcome",
			},
			[]string{"outcome"},
		),
		peerQueryErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ledgersync_node_peer_query_error_count",
				Help: "The total number of failed peer root hash queries",
			},
		),
		checkpointHeight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledgersync_node_checkpoint_height",
				Help: "The last certified checkpoint position",
			},
		),
		feedPosition: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledgersync_node_feed_position",
				Help: "The latest position observed on the transaction feed",
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ledgersync_node_panic_count",
				Help: "The total number of recovered goroutine panics",
			},
		),
	}
}

var nodeMetrics *nodePromMetrics

// InitMetrics initialize metrics for node but not expose to api yet
func InitMetrics() {
	nodeMetrics = newNodePromMetrics()
	nodeMetrics.nodeUpUnixSeconds.SetToCurrentTime()
}

func RegisterMetrics(mux *http.ServeMux) {
	logx.Info("MONITORING", "Registering prometheus metrics")
	mux.Handle("/metrics", promhttp.Handler())
}

func IncreaseAppliedTxCount() {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.appliedTxCount.Inc()
}

func RecordSkippedTx(reason TxSkippedReason) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.skippedTxCount.With(prometheus.Labels{
		"reason": string(reason),
	}).Inc()
}

func RecordValidationRound(outcome ValidationOutcome) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.validationRounds.With(prometheus.Labels{
		"outcome": string(outcome),
	}).Inc()
}

func IncreasePeerQueryErrorCount() {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.peerQueryErrors.Inc()
}

func SetCheckpointHeight(position uint64) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.checkpointHeight.Set(float64(position))
}

func SetFeedPosition(position uint64) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.feedPosition.Set(float64(position))
}

func IncreasePanicCount() {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.panicCount.Inc()
}
