package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	apiRetryTotal   atomic.Uint64
	apiRefreshTotal atomic.Uint64

	cacheHitTotal  atomic.Uint64
	cacheMissTotal atomic.Uint64

	exportCacheHitTotal atomic.Uint64
	commitTotal         atomic.Uint64

	apiCalls        = newStatusCounter()
	apiCallDuration = newHistogram([]float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000})
	exports         = newStatusCounter()
)

// IncAPIRetry counts requests replayed after a token refresh.
func IncAPIRetry() {
	apiRetryTotal.Add(1)
}

// IncAPIRefresh counts refresh-token exchanges.
func IncAPIRefresh() {
	apiRefreshTotal.Add(1)
}

// ObserveAPICall records one outbound call. Status 0 means a transport error.
func ObserveAPICall(status int, elapsed time.Duration) {
	apiCalls.Inc(statusClass(status))
	ms := float64(elapsed) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	apiCallDuration.Observe(ms)
}

// IncCacheHit increments the query cache hit counter.
func IncCacheHit() {
	cacheHitTotal.Add(1)
}

// IncCacheMiss increments the query cache miss counter.
func IncCacheMiss() {
	cacheMissTotal.Add(1)
}

// IncExport counts an export by format.
func IncExport(format string) {
	exports.Inc(format)
}

// IncExportCacheHit counts exports served from the artifact store.
func IncExportCacheHit() {
	exportCacheHitTotal.Add(1)
}

// IncCommit counts workshop decision commits.
func IncCommit() {
	commitTotal.Add(1)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeLabeled(&buf, "api_calls_total", "Outbound API calls by status class", "class", apiCalls.Snapshot())
	writeHistogram(&buf, "api_call_duration_ms", "Outbound API call duration in milliseconds", apiCallDuration.Snapshot())
	writeCounter(&buf, "api_refresh_total", "Token refresh exchanges", apiRefreshTotal.Load())
	writeCounter(&buf, "api_retry_total", "Requests retried after a refresh", apiRetryTotal.Load())
	writeCounter(&buf, "query_cache_hit_total", "Query cache hits", cacheHitTotal.Load())
	writeCounter(&buf, "query_cache_miss_total", "Query cache misses", cacheMissTotal.Load())
	writeLabeled(&buf, "export_total", "Exports by format", "format", exports.Snapshot())
	writeCounter(&buf, "export_cache_hit_total", "Exports served from the artifact store", exportCacheHitTotal.Load())
	writeCounter(&buf, "workshop_commit_total", "Workshop decision commits", commitTotal.Load())
	return buf.String()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

type statusCounter struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func newStatusCounter() *statusCounter {
	return &statusCounter{counts: make(map[string]uint64)}
}

func (s *statusCounter) Inc(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[label]++
}

func (s *statusCounter) Snapshot() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeled(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
