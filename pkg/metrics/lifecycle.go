package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics records task state machine activity.
type LifecycleMetrics struct {
	transitions        *prometheus.CounterVec
	capacityRejections *prometheus.CounterVec
	deliveredAmount    *prometheus.CounterVec
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "task_transitions_total",
		Help: "Committed task status transitions.",
	}, []string{"from", "to"})
	capacityRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "capacity_rejections_total",
		Help: "Deliveries rejected because the target container was too full.",
	}, []string{"container"})
	deliveredAmount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivered_amount_total",
		Help: "Total delivered material per unit.",
	}, []string{"unit"})
	reg.MustRegister(transitions, capacityRejections, deliveredAmount)
	return &LifecycleMetrics{
		transitions:        transitions,
		capacityRejections: capacityRejections,
		deliveredAmount:    deliveredAmount,
	}
}

// ObserveTransition counts a committed transition.
func (m *LifecycleMetrics) ObserveTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncCapacityRejection counts a rejected delivery for the container.
func (m *LifecycleMetrics) IncCapacityRejection(containerID string) {
	if m == nil || m.capacityRejections == nil {
		return
	}
	m.capacityRejections.WithLabelValues(normalizeLabel(containerID)).Inc()
}

// AddDeliveredAmount accumulates delivered material by unit.
func (m *LifecycleMetrics) AddDeliveredAmount(unit string, amount float64) {
	if m == nil || m.deliveredAmount == nil || amount <= 0 {
		return
	}
	m.deliveredAmount.WithLabelValues(normalizeLabel(unit)).Add(amount)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
