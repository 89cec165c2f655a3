// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the indexer.
type Metrics struct {
	// Watcher metrics
	NotificationsReceived prometheus.Counter
	NotificationsAccepted prometheus.Counter
	NotificationsRejected *prometheus.CounterVec
	HighestSlotSeen       prometheus.Gauge
	SlotLag               prometheus.Gauge

	// Reconciler metrics
	EventsApplied     *prometheus.CounterVec
	EventApplyErrors  *prometheus.CounterVec
	EventApplyLatency *prometheus.HistogramVec

	// Fee sweep metrics
	SweepRunsTotal     *prometheus.CounterVec
	SweepDuration      prometheus.Histogram
	VaultsProcessed    prometheus.Counter
	VaultClaims        prometheus.Counter
	VaultClaimErrors   prometheus.Counter
	SolClaimed         prometheus.Counter
	RewardsDistributed prometheus.Counter

	// Reward payout metrics
	PayoutsSettled prometheus.Counter
	PayoutErrors   prometheus.Counter

	// Gateway metrics
	WSClientsConnected prometheus.Gauge
	EventsBroadcast    *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "launchpad_indexer"
	}

	return &Metrics{
		NotificationsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "notifications_received_total",
			Help:      "Total log notifications received from the subscription",
		}),
		NotificationsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "notifications_accepted_total",
			Help:      "Total notifications that passed the admission filter",
		}),
		NotificationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "notifications_rejected_total",
			Help:      "Total notifications rejected by reason",
		}, []string{"reason"}),
		HighestSlotSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "highest_slot_seen",
			Help:      "Highest Solana slot number seen on the subscription",
		}),
		SlotLag: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "slot_lag",
			Help:      "Chain slot minus highest slot seen on the subscription",
		}),

		EventsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "events_applied_total",
			Help:      "Total events applied to the ledger by kind",
		}, []string{"kind"}),
		EventApplyErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "event_apply_errors_total",
			Help:      "Total event application failures by kind",
		}, []string{"kind"}),
		EventApplyLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "event_apply_latency_seconds",
			Help:      "Event application latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		SweepRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "sweep_runs_total",
			Help:      "Total fee sweep runs by status",
		}, []string{"status"}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "sweep_duration_seconds",
			Help:      "Fee sweep duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		VaultsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "vaults_processed_total",
			Help:      "Total vaults examined by the fee sweep",
		}),
		VaultClaims: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "vault_claims_total",
			Help:      "Total successful vault fee claims",
		}),
		VaultClaimErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "vault_claim_errors_total",
			Help:      "Total vault claim failures",
		}),
		SolClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "sol_claimed_total",
			Help:      "Total SOL claimed from fee vaults",
		}),
		RewardsDistributed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "rewards_distributed_total",
			Help:      "Total creator reward accruals recorded",
		}),

		PayoutsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "payouts_settled_total",
			Help:      "Total creator reward payouts settled",
		}),
		PayoutErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "payout_errors_total",
			Help:      "Total creator reward payout failures",
		}),

		WSClientsConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "ws_clients_connected",
			Help:      "Currently connected realtime clients",
		}),
		EventsBroadcast: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "events_broadcast_total",
			Help:      "Total events broadcast by channel",
		}, []string{"channel"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
