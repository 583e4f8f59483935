package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	SkillRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharosbot_skill_runs_total",
		Help: "The total number of skill executions by skill and status",
	}, []string{"skill", "status"})

	SkillDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pharosbot_skill_duration_seconds",
		Help:    "Time taken to execute a skill",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10), // Start at 1s with 10 buckets doubling in size
	}, []string{"skill"})

	SwapLegs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharosbot_swap_legs_total",
		Help: "The total number of swap legs by pair and status",
	}, []string{"pair", "status"})

	ApprovalsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharosbot_approvals_submitted_total",
		Help: "The total number of approve transactions mined",
	})

	ApprovalsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharosbot_approvals_skipped_total",
		Help: "The total number of approvals skipped because the allowance was already sufficient",
	})

	QuoteRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharosbot_quote_retries_total",
		Help: "The total number of retried route quote requests",
	})

	GasUsed = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pharosbot_gas_used",
		Help:    "Gas used per mined transaction",
		Buckets: prometheus.ExponentialBuckets(21000, 2, 10), // Start at 21000 with 10 buckets doubling in size
	}, []string{"skill"})

	WalletsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharosbot_wallets_processed_total",
		Help: "The total number of wallet passes by status",
	}, []string{"status"})

	CycleCountdownSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pharosbot_cycle_countdown_seconds",
		Help: "Seconds until the next daily cycle starts",
	})

	CircuitBreakerTripped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharosbot_circuit_breaker_tripped_total",
		Help: "The number of times the chain circuit breaker opened",
	})
)
