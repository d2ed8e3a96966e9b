package monitor

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTrackerMetrics(t *testing.T) {
	tr := NewTracker(zerolog.Nop())
	tr.SlowThreshold = 100 * time.Millisecond

	tr.Record("get_recommendations", 10*time.Millisecond, SourceCache)
	tr.Record("get_recommendations", 20*time.Millisecond, SourceCache)
	tr.Record("get_recommendations", 150*time.Millisecond, SourceComputed)
	tr.Record("get_recommendations", 30*time.Millisecond, SourceFallback)

	m := tr.MetricsFor("get_recommendations")
	if m.TotalRequests != 4 {
		t.Fatalf("total = %d, want 4", m.TotalRequests)
	}
	if m.CacheHitRate != 50 {
		t.Errorf("cache hit rate = %v, want 50", m.CacheHitRate)
	}
	if m.FallbackRate != 25 {
		t.Errorf("fallback rate = %v, want 25", m.FallbackRate)
	}
	if m.SlowRequestRate != 25 {
		t.Errorf("slow rate = %v, want 25", m.SlowRequestRate)
	}
	wantAvg := (10.0 + 20 + 150 + 30) / 4
	if m.AverageResponseTime != wantAvg {
		t.Errorf("average = %v, want %v", m.AverageResponseTime, wantAvg)
	}
	if m.P50 != 20 {
		t.Errorf("p50 = %v, want 20", m.P50)
	}
	if m.P99 != 150 {
		t.Errorf("p99 = %v, want 150", m.P99)
	}
}

func TestTrackerEmptyOperation(t *testing.T) {
	tr := NewTracker(zerolog.Nop())
	m := tr.MetricsFor("unknown")
	if m.TotalRequests != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
}

func TestTrackerWindowBound(t *testing.T) {
	tr := NewTracker(zerolog.Nop())
	tr.WindowSize = 100

	for i := 0; i < 250; i++ {
		tr.Record("op", time.Millisecond, SourceComputed)
	}
	m := tr.MetricsFor("op")
	if m.TotalRequests != 100 {
		t.Errorf("window not bounded: %d samples, want 100", m.TotalRequests)
	}
}

func TestTrackerAlert(t *testing.T) {
	tr := NewTracker(zerolog.Nop())
	tr.SlowThreshold = 100 * time.Millisecond

	var alerted []Sample
	tr.OnAlert = func(op string, s Sample) {
		if op != "op" {
			t.Errorf("alert operation = %q, want op", op)
		}
		alerted = append(alerted, s)
	}

	tr.Record("op", 150*time.Millisecond, SourceComputed) // SLOW 但不超过 2 倍
	tr.Record("op", 250*time.Millisecond, SourceComputed) // 超过 2 倍 → 告警
	if len(alerted) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerted))
	}
	if alerted[0].Status != StatusSlow {
		t.Errorf("alert status = %q, want SLOW", alerted[0].Status)
	}
	if alerted[0].ElapsedMs != 250 {
		t.Errorf("alert elapsed = %v, want 250", alerted[0].ElapsedMs)
	}
}
