package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	requestTransitions *prometheus.CounterVec
	deductionPostings  *prometheus.CounterVec
	settlements        *prometheus.CounterVec
	autoApplyRuns      prometheus.Counter
	milkDeliveries     prometheus.Counter
}

// New builds the domain instruments and registers them with the
// given registerer. Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maziwa_feed_request_transitions_total",
			Help: "Feed request status transitions by target status and outcome.",
		}, []string{"target_status", "outcome"}),
		deductionPostings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maziwa_feed_deductions_posted_total",
			Help: "Feed deduction ledger postings by outcome.",
		}, []string{"outcome"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maziwa_settlements_total",
			Help: "Farmer settlements by outcome.",
		}, []string{"outcome"}),
		autoApplyRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maziwa_auto_apply_runs_total",
			Help: "Auto-apply deduction sweeps executed.",
		}),
		milkDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maziwa_milk_deliveries_total",
			Help: "Milk delivery revenue entries recorded.",
		}),
	}

	collectors := []prometheus.Collector{
		m.requestTransitions,
		m.deductionPostings,
		m.settlements,
		m.autoApplyRuns,
		m.milkDeliveries,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

// RecordTransition increments transition counts.
func (m *Metrics) RecordTransition(targetStatus, outcome string) {
	if m == nil {
		return
	}
	m.requestTransitions.WithLabelValues(normalize(targetStatus), normalize(outcome)).Inc()
}

// RecordDeductionPosting increments deduction posting counts.
func (m *Metrics) RecordDeductionPosting(outcome string) {
	if m == nil {
		return
	}
	m.deductionPostings.WithLabelValues(normalize(outcome)).Inc()
}

// RecordSettlement increments settlement counts.
func (m *Metrics) RecordSettlement(outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(normalize(outcome)).Inc()
}

// RecordAutoApplyRun increments the auto-apply sweep count.
func (m *Metrics) RecordAutoApplyRun() {
	if m == nil {
		return
	}
	m.autoApplyRuns.Inc()
}

// RecordMilkDelivery increments the milk delivery count.
func (m *Metrics) RecordMilkDelivery() {
	if m == nil {
		return
	}
	m.milkDeliveries.Inc()
}

func normalize(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "unknown"
	}
	return v
}
