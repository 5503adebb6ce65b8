package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records entitlement decisions and product usage.
type Metrics struct {
	decisions *prometheus.CounterVec
	drafts    *prometheus.CounterVec
	reminders *prometheus.CounterVec
	upgrades  *prometheus.CounterVec
}

// New registers the collectors on reg. A nil registerer yields a no-op Metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_decisions_total",
		Help: "Feature access decisions by feature and outcome.",
	}, []string{"feature", "outcome"})
	drafts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drafts_generated_total",
		Help: "Drafts generated by plan and result.",
	}, []string{"plan", "result"})
	reminders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trial_reminders_sent_total",
		Help: "Trial reminder notifications by kind.",
	}, []string{"kind"})
	upgrades := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_changes_total",
		Help: "Plan changes by source and target plan.",
	}, []string{"source", "plan"})
	reg.MustRegister(decisions, drafts, reminders, upgrades)
	return &Metrics{
		decisions: decisions,
		drafts:    drafts,
		reminders: reminders,
		upgrades:  upgrades,
	}
}

var std = New(nil)

// SetDefault replaces the process-wide metrics.
func SetDefault(m *Metrics) {
	if m != nil {
		std = m
	}
}

// Default returns the process-wide metrics; no-op until SetDefault is called.
func Default() *Metrics {
	return std
}

func (m *Metrics) ObserveDecision(feature string, allowed bool) {
	if m == nil || m.decisions == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.decisions.WithLabelValues(normalizeLabel(feature), outcome).Inc()
}

func (m *Metrics) IncDraft(plan, result string) {
	if m == nil || m.drafts == nil {
		return
	}
	m.drafts.WithLabelValues(normalizeLabel(plan), normalizeLabel(result)).Inc()
}

func (m *Metrics) IncReminder(kind string) {
	if m == nil || m.reminders == nil {
		return
	}
	m.reminders.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) IncPlanChange(source, plan string) {
	if m == nil || m.upgrades == nil {
		return
	}
	m.upgrades.WithLabelValues(normalizeLabel(source), normalizeLabel(plan)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
