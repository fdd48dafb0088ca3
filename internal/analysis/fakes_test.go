package analysis

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"docrisk-backend/internal/chunk"
	"docrisk-backend/internal/llm"
	"docrisk-backend/internal/risk"
)

type classifierFunc func(ctx context.Context, text string) (risk.DocumentType, error)

func (f classifierFunc) Classify(ctx context.Context, text string) (risk.DocumentType, error) {
	return f(ctx, text)
}

type extractorFunc func(ctx context.Context, c chunk.Chunk, docType risk.DocumentType) ([]string, error)

func (f extractorFunc) ExtractClauses(ctx context.Context, c chunk.Chunk, docType risk.DocumentType) ([]string, error) {
	return f(ctx, c, docType)
}

type scorerFunc func(ctx context.Context, clause risk.Clause, docType risk.DocumentType) (risk.Assessment, error)

func (f scorerFunc) ScoreClause(ctx context.Context, clause risk.Clause, docType risk.DocumentType) (risk.Assessment, error) {
	return f(ctx, clause, docType)
}

// stageLLM answers by pipeline stage and counts calls.
type stageLLM struct {
	classify func(req llm.Request) (string, error)
	extract  func(req llm.Request) (string, error)
	score    func(req llm.Request) (string, error)
	calls    atomic.Int32
}

func (s *stageLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var fn func(llm.Request) (string, error)
	switch req.Stage {
	case llm.StageClassify:
		fn = s.classify
	case llm.StageExtract:
		fn = s.extract
	case llm.StageScore:
		fn = s.score
	}
	if fn == nil {
		return "", llm.ErrNotImplemented
	}
	return fn(req)
}

func newLLMPipeline(client llm.Client, opts Options) *Pipeline {
	p := NewPipeline(
		LLMClassifier{LLM: client, MaxChars: 3000},
		LLMClauseExtractor{LLM: client},
		LLMClauseScorer{LLM: client},
		opts,
	)
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

// safeText is a two-page SAFE in plain text; the form feed separates pages.
const safeText = `SIMPLE AGREEMENT FOR FUTURE EQUITY

THIS CERTIFIES THAT in exchange for the payment by the Investor of $250,000 on or about the date of this instrument, Acme Robotics, Inc. issues to the Investor the right to certain shares of the Company's Capital Stock.
` + "\f" + `
1. Events

The "Valuation Cap" is uncapped. There is no post-money valuation cap on conversion of this instrument.

This instrument is governed by the laws of the State of Delaware.
`

func fixedLevels(levels map[string]risk.Level) scorerFunc {
	return func(ctx context.Context, clause risk.Clause, docType risk.DocumentType) (risk.Assessment, error) {
		for needle, level := range levels {
			if strings.Contains(strings.ToLower(clause.Text), needle) {
				return risk.Assessment{Clause: clause, RiskLevel: level, Rationale: "fixed"}, nil
			}
		}
		return risk.Assessment{Clause: clause, RiskLevel: risk.LevelLow, Rationale: "default"}, nil
	}
}
