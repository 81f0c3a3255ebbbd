package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/justifica/datacache/internal/stats"
)

func TestCollector_LogsEachMetric(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricHits, 2)
	c.SetGauge(stats.MetricEntries, 4)
	c.ObserveHistogram(stats.MetricFetchTime, 0.25)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("logged %d entries, want 3", len(entries))
	}

	want := []struct {
		msg    string
		metric string
	}{
		{"counter", stats.MetricHits},
		{"gauge", stats.MetricEntries},
		{"histogram", stats.MetricFetchTime},
	}
	for i, w := range want {
		if entries[i].Message != w.msg {
			t.Errorf("entry %d message = %q, want %q", i, entries[i].Message, w.msg)
		}
		if got := entries[i].ContextMap()["metric"]; got != w.metric {
			t.Errorf("entry %d metric = %v, want %q", i, got, w.metric)
		}
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	// Must not panic.
	c.IncCounter(stats.MetricReads, 1)
}
