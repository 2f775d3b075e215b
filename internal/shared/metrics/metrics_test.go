package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestRenderIncludesCountersAndHistogram(t *testing.T) {
	IncCacheHit()
	IncCacheMiss()
	IncExport("pdf")
	ObserveAPICall(200, 30*time.Millisecond)
	ObserveAPICall(0, time.Millisecond)

	out := Render()
	for _, want := range []string{
		"query_cache_hit_total ",
		"query_cache_miss_total ",
		`export_total{format="pdf"}`,
		`api_calls_total{class="2xx"}`,
		`api_calls_total{class="error"}`,
		`api_call_duration_ms_bucket{le="+Inf"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts %v", snap.counts)
	}
}
