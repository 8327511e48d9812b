package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"syncshield/internal/domain/value"
)

const namespace = "syncshield"

// Registry holds the collectors for bid admission and budget reallocation.
type Registry struct {
	BidDecisions    *prometheus.CounterVec
	DegradedBids    prometheus.Counter
	BidOutcomes     *prometheus.CounterVec
	BidLatency      prometheus.Histogram
	QueueDepth      prometheus.Gauge
	Cycles          *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	FetchFailures   *prometheus.CounterVec
	Underperformers prometheus.Gauge
	Reallocations   *prometheus.CounterVec
	ShiftedBudget   *prometheus.CounterVec
	SideEffectFails *prometheus.CounterVec
	Efficiency      *prometheus.GaugeVec
	DailyBudget     *prometheus.GaugeVec
	MeanEfficiency  prometheus.Gauge
}

func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		BidDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bid_decisions_total",
				Help:      "Admission decisions by risk level",
			},
			[]string{"risk_level"},
		),
		DegradedBids: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bid_degraded_total",
				Help:      "Decisions made with the conservative fallback value",
			},
		),
		BidOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bid_executions_total",
				Help:      "Dispatcher outcomes by result",
			},
			[]string{"result"},
		),
		BidLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "bid_execution_seconds",
				Help:      "Time from intake to response",
				Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "bid_queue_depth",
				Help:      "Requests waiting in the intake queue",
			},
		),
		Cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reallocation_cycles_total",
				Help:      "Reallocation cycles by outcome",
			},
			[]string{"outcome"},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reallocation_cycle_seconds",
				Help:      "Duration of a reallocation cycle",
				Buckets:   prometheus.DefBuckets,
			},
		),
		FetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "platform_fetch_failures_total",
				Help:      "Per-platform value/cost fetch failures",
			},
			[]string{"platform"},
		),
		Underperformers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "underperforming_platforms",
				Help:      "Platforms below the efficiency cutoff in the last cycle",
			},
		),
		Reallocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reallocations_total",
				Help:      "Budget shifts by source and destination platform",
			},
			[]string{"from", "to"},
		),
		ShiftedBudget: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reallocated_budget_total",
				Help:      "Daily budget moved away from a platform",
			},
			[]string{"from"},
		),
		SideEffectFails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reallocation_side_effect_failures_total",
				Help:      "Ledger or alert failures after a reallocation decision",
			},
			[]string{"kind"},
		),
		Efficiency: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "platform_efficiency",
				Help:      "Value/cost ratio per platform",
			},
			[]string{"platform"},
		),
		DailyBudget: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "platform_daily_budget",
				Help:      "Current daily budget per platform including committed shifts",
			},
			[]string{"platform"},
		),
		MeanEfficiency: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mean_efficiency",
				Help:      "Mean efficiency over successfully fetched platforms",
			},
		),
	}

	reg.MustRegister(
		r.BidDecisions,
		r.DegradedBids,
		r.BidOutcomes,
		r.BidLatency,
		r.QueueDepth,
		r.Cycles,
		r.CycleDuration,
		r.FetchFailures,
		r.Underperformers,
		r.Reallocations,
		r.ShiftedBudget,
		r.SideEffectFails,
		r.Efficiency,
		r.DailyBudget,
		r.MeanEfficiency,
	)

	return r
}

// NewNop returns collectors that are not attached to any registry.
func NewNop() *Registry {
	return New(prometheus.NewRegistry())
}

func (r *Registry) ObserveDecision(level value.RiskLevel, degraded bool) {
	r.BidDecisions.WithLabelValues(level.String()).Inc()

	if degraded {
		r.DegradedBids.Inc()
	}
}

func (r *Registry) ObserveExecution(result string, started time.Time) {
	r.BidOutcomes.WithLabelValues(result).Inc()
	r.BidLatency.Observe(time.Since(started).Seconds())
}

func (r *Registry) ObservePlatform(p value.Platform, efficiency, dailyBudget float64) {
	r.Efficiency.WithLabelValues(p.String()).Set(efficiency)
	r.DailyBudget.WithLabelValues(p.String()).Set(dailyBudget)
}

func (r *Registry) ObserveShift(from, to value.Platform, amount float64) {
	r.Reallocations.WithLabelValues(from.String(), to.String()).Inc()
	r.ShiftedBudget.WithLabelValues(from.String()).Add(amount)
}
