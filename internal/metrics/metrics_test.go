package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordQuery(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordQuery("answer")
	m.RecordQuery("answer")
	m.RecordQuery("not_found")

	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("answer")); got != 2 {
		t.Errorf("answer count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("not_found")); got != 1 {
		t.Errorf("not_found count = %v, want 1", got)
	}
}

func TestRecordWebhook(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordWebhook("message", "success", 0.05)
	m.RecordWebhook("message", "error", 0.1)

	if got := testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues("message", "success")); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.WebhookRequestsTotal.WithLabelValues("message", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestSetIndexSize(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.SetIndexSize(120, 30)
	if got := testutil.ToFloat64(m.IndexEntries); got != 120 {
		t.Errorf("IndexEntries = %v, want 120", got)
	}
	if got := testutil.ToFloat64(m.IndexChanges); got != 30 {
		t.Errorf("IndexChanges = %v, want 30", got)
	}

	m.SetIndexSize(0, 0)
	if got := testutil.ToFloat64(m.IndexEntries); got != 0 {
		t.Errorf("IndexEntries after reset = %v, want 0", got)
	}
}

func TestRecordSourceLoad(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordSourceLoad("success")
	m.RecordSourceLoad("fallback")

	if got := testutil.ToFloat64(m.SourceLoadsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("success loads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SourceLoadsTotal.WithLabelValues("fallback")); got != 1 {
		t.Errorf("fallback loads = %v, want 1", got)
	}
}
