// Package analysis runs the document risk pipeline: extraction, classification,
// chunking, clause extraction, clause scoring and aggregation.
package analysis

import (
	"context"

	"docrisk-backend/internal/chunk"
	"docrisk-backend/internal/risk"
)

// Classifier labels a document.
type Classifier interface {
	Classify(ctx context.Context, text string) (risk.DocumentType, error)
}

// ClauseExtractor returns the risk-relevant clauses of one chunk. An empty
// result is not an error.
type ClauseExtractor interface {
	ExtractClauses(ctx context.Context, c chunk.Chunk, docType risk.DocumentType) ([]string, error)
}

// ClauseScorer rates one clause.
type ClauseScorer interface {
	ScoreClause(ctx context.Context, clause risk.Clause, docType risk.DocumentType) (risk.Assessment, error)
}
