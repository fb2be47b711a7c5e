// Package metrics holds the Prometheus instruments for the accountability
// core. All increment helpers are nil-safe so services constructed without
// metrics (tests, tools) need no conditionals.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AuditEntries     prometheus.Counter
	LeaveDecisions   *prometheus.CounterVec
	ScheduleRejected *prometheus.CounterVec
	WarningsEmitted  *prometheus.CounterVec
	KPIObservations  prometheus.Counter
	KPIPeriodsClosed prometheus.Counter
}

// New creates and registers all metrics on the default registry. Call once
// per process.
func New() *Metrics {
	return &Metrics{
		AuditEntries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "practiceops_audit_entries_total",
			Help: "Total audit entries appended.",
		}),
		LeaveDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "practiceops_leave_decisions_total",
			Help: "Leave decisions by outcome.",
		}, []string{"outcome"}),
		ScheduleRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "practiceops_schedule_rejections_total",
			Help: "Schedule assignments rejected, by reason.",
		}, []string{"reason"}),
		WarningsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "practiceops_warnings_emitted_total",
			Help: "Warnings emitted, by rule (manual for manager-issued).",
		}, []string{"rule"}),
		KPIObservations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "practiceops_kpi_observations_total",
			Help: "KPI observations recorded.",
		}),
		KPIPeriodsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "practiceops_kpi_periods_closed_total",
			Help: "KPI periods closed.",
		}),
	}
}

func (m *Metrics) IncAuditEntries() {
	if m != nil {
		m.AuditEntries.Inc()
	}
}

func (m *Metrics) IncLeaveDecision(outcome string) {
	if m != nil {
		m.LeaveDecisions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncScheduleRejected(reason string) {
	if m != nil {
		m.ScheduleRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncWarningEmitted(rule string) {
	if m != nil {
		m.WarningsEmitted.WithLabelValues(rule).Inc()
	}
}

func (m *Metrics) IncKPIObservations() {
	if m != nil {
		m.KPIObservations.Inc()
	}
}

func (m *Metrics) IncKPIPeriodsClosed() {
	if m != nil {
		m.KPIPeriodsClosed.Inc()
	}
}
