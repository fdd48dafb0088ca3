package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	analysesStarted   atomic.Uint64
	analysesCompleted atomic.Uint64
	analysesRejected  atomic.Uint64
	analysesTimedOut  atomic.Uint64
	analysesPartial   atomic.Uint64
	handlerPanics     atomic.Uint64

	clausesScored        atomic.Uint64
	clausesUnscored      atomic.Uint64
	classifierFallbacks  atomic.Uint64
	chunkExtractFailures atomic.Uint64

	llmCalls  = newCounterVec()
	llmErrors = newCounterVec()

	analysisDuration = newHistogram([]float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000, 300000})
)

// IncAnalysisStarted increments the started counter.
func IncAnalysisStarted() { analysesStarted.Add(1) }

// IncAnalysisCompleted increments the completed counter.
func IncAnalysisCompleted() { analysesCompleted.Add(1) }

// IncAnalysisRejected counts requests that ended without a report (unsupported format, extraction failure).
func IncAnalysisRejected() { analysesRejected.Add(1) }

// IncAnalysisTimedOut counts analyses that hit the whole-analysis deadline.
func IncAnalysisTimedOut() { analysesTimedOut.Add(1) }

// IncAnalysisDeadlinePartial counts reports built after the deadline with clauses left unscored.
func IncAnalysisDeadlinePartial() { analysesPartial.Add(1) }

// IncPanic counts handler panics caught by the recovery middleware.
func IncPanic() { handlerPanics.Add(1) }

// AddClauses records scored and unscored clause counts of one report.
func AddClauses(scored, unscored int) {
	if scored > 0 {
		clausesScored.Add(uint64(scored))
	}
	if unscored > 0 {
		clausesUnscored.Add(uint64(unscored))
	}
}

// IncClassifierFallback counts classifications that fell back to Other.
func IncClassifierFallback() { classifierFallbacks.Add(1) }

// IncChunkExtractFailure counts chunks whose clause extraction failed.
func IncChunkExtractFailure() { chunkExtractFailures.Add(1) }

// IncLLMCall counts one provider call for a pipeline stage.
func IncLLMCall(stage string) { llmCalls.inc(stage) }

// IncLLMError counts one failed provider call for a pipeline stage.
func IncLLMError(stage string) { llmErrors.inc(stage) }

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.Observe(value)
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
	writeCounter(&buf, "docrisk_analyses_started_total", "Total analyses started", analysesStarted.Load())
	writeCounter(&buf, "docrisk_analyses_completed_total", "Total analyses that produced a report", analysesCompleted.Load())
	writeCounter(&buf, "docrisk_analyses_rejected_total", "Total analyses rejected before a report", analysesRejected.Load())
	writeCounter(&buf, "docrisk_analyses_timed_out_total", "Total analyses that exceeded the deadline", analysesTimedOut.Load())
	writeCounter(&buf, "docrisk_analyses_deadline_partial_total", "Reports returned partially scored at the deadline", analysesPartial.Load())
	writeCounter(&buf, "docrisk_http_panics_total", "Handler panics recovered", handlerPanics.Load())
	writeCounter(&buf, "docrisk_clauses_scored_total", "Clauses that received a risk level", clausesScored.Load())
	writeCounter(&buf, "docrisk_clauses_unscored_total", "Clauses left unscored after a scoring failure", clausesUnscored.Load())
	writeCounter(&buf, "docrisk_classifier_fallbacks_total", "Classifications that fell back to other", classifierFallbacks.Load())
	writeCounter(&buf, "docrisk_chunk_extract_failures_total", "Chunks whose clause extraction failed", chunkExtractFailures.Load())
	writeCounterVec(&buf, "docrisk_llm_calls_total", "LLM calls by stage", "stage", llmCalls.snapshot())
	writeCounterVec(&buf, "docrisk_llm_errors_total", "Failed LLM calls by stage", "stage", llmErrors.snapshot())
	writeHistogram(&buf, "docrisk_analysis_duration_ms", "Analysis duration in milliseconds", analysisDuration.Snapshot())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: make(map[string]uint64)}
}

func (v *counterVec) inc(label string) {
	v.mu.Lock()
	v.values[label]++
	v.mu.Unlock()
}

func (v *counterVec) snapshot() map[string]uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	for k, val := range v.values {
		out[k] = val
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

// Observe counts the value in the first bucket whose bound holds it; Render accumulates.
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

func writeCounterVec(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
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
