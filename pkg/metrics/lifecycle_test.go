package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLifecycleMetrics_NilSafe(t *testing.T) {
	var m *LifecycleMetrics
	m.ObserveTransition("OPEN", "ASSIGNED")
	m.IncCapacityRejection("WH-1")
	m.AddDeliveredAmount("kg", 10)
}

func TestLifecycleMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLifecycleMetrics(reg)

	m.ObserveTransition("OPEN", "ASSIGNED")
	m.ObserveTransition("OPEN", "ASSIGNED")
	m.IncCapacityRejection("")
	m.AddDeliveredAmount("kg", 50)
	m.AddDeliveredAmount("kg", -5)

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("OPEN", "ASSIGNED")); got != 2 {
		t.Fatalf("expected 2 transitions, got %v", got)
	}
	if got := testutil.ToFloat64(m.capacityRejections.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty container label to normalize to unknown, got %v", got)
	}
	if got := testutil.ToFloat64(m.deliveredAmount.WithLabelValues("kg")); got != 50 {
		t.Fatalf("expected negative amounts ignored, got %v", got)
	}
}
