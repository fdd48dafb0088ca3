package main

import (
	"strings"
	"testing"

	"docrisk-backend/internal/risk"
)

func TestRenderIncludesClausesAndWarnings(t *testing.T) {
	score := 8.0
	report := risk.Report{
		FileName:          "safe.pdf",
		Format:            "pdf",
		Pages:             2,
		DocumentType:      risk.DocSAFE,
		DocumentTypeLabel: "SAFE",
		AggregateScore:    &score,
		ScoreStatus:       risk.ScoreScored,
		Summary:           "High risk SAFE.",
		Clauses: []risk.Assessment{
			{Clause: risk.Clause{Text: "Uncapped valuation"}, RiskLevel: risk.LevelHigh, Rationale: "no price protection"},
			{Clause: risk.Clause{Text: "MFN clause"}, RiskLevel: risk.LevelUnscored, Note: "scoring timed out"},
		},
		Warnings: []string{"clause extraction failed for chunk 2: timeout"},
	}

	out := render(report)
	for _, want := range []string{"safe.pdf", "8.0 / 10", "Uncapped valuation", "no price protection", "scoring timed out", "chunk 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestRenderUnavailableScore(t *testing.T) {
	out := render(risk.Report{FileName: "x.txt", ScoreStatus: risk.ScoreUnavailable})
	if !strings.Contains(out, "n/a") {
		t.Fatalf("expected n/a score, got:\n%s", out)
	}
}
