package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	m := New()
	m.CacheHits.Inc()
	m.Recommendations.WithLabelValues("RSI Oversold").Add(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		"advisor_series_cache_hits_total 1",
		`advisor_recommendations_total{type="RSI Oversold"} 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.CacheMisses.Inc()
	if a.Registry() == b.Registry() {
		t.Fatal("expected separate registries")
	}
}

func TestHealthStatus_Snapshot(t *testing.T) {
	h := NewHealthStatus("memory", "noop")
	h.SetFetch(true)
	s := h.Snapshot()
	if !s.LastFetchOK || s.CacheBackend != "memory" || s.LastFetchAt.IsZero() {
		t.Errorf("unexpected snapshot %+v", s)
	}
}
