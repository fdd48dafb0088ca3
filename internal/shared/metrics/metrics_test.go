package metrics

import (
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	var sb strings.Builder
	snap := h.Snapshot()
	var cumulative uint64
	for i := range snap.buckets {
		cumulative += snap.counts[i]
		sb.WriteString(formatFloat(snap.buckets[i]))
		sb.WriteString("=")
		sb.WriteString(formatFloat(float64(cumulative)))
		sb.WriteString(" ")
	}
	if got := strings.TrimSpace(sb.String()); got != "10=1 100=2" {
		t.Fatalf("unexpected cumulative buckets: %s", got)
	}
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
}

func TestRenderIncludesStageLabels(t *testing.T) {
	IncLLMCall("classify")
	IncLLMError("score")

	out := Render()
	if !strings.Contains(out, `docrisk_llm_calls_total{stage="classify"}`) {
		t.Fatalf("missing classify call counter:\n%s", out)
	}
	if !strings.Contains(out, `docrisk_llm_errors_total{stage="score"}`) {
		t.Fatalf("missing score error counter:\n%s", out)
	}
	if !strings.Contains(out, "docrisk_analysis_duration_ms_bucket{le=\"+Inf\"}") {
		t.Fatalf("missing histogram:\n%s", out)
	}
}
