// Package audit records metadata about completed analysis runs. It never stores
// document text or clause content.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docrisk-backend/internal/risk"
)

// Run is the metadata of one analysis.
type Run struct {
	ID                 string    `json:"id"`
	RequestID          string    `json:"requestId,omitempty"`
	FileName           string    `json:"fileName"`
	Format             string    `json:"format"`
	DocumentType       string    `json:"documentType"`
	ClassifierFallback bool      `json:"classifierFallback"`
	ScoreStatus        string    `json:"scoreStatus"`
	AggregateScore     *float64  `json:"aggregateScore"`
	ChunkCount         int       `json:"chunkCount"`
	ClauseCount        int       `json:"clauseCount"`
	UnscoredCount      int       `json:"unscoredCount"`
	HighCount          int       `json:"highCount"`
	WarningCount       int       `json:"warningCount"`
	Provider           string    `json:"provider"`
	Model              string    `json:"model"`
	DurationMs         int64     `json:"durationMs"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Repo persists runs.
type Repo interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// MaxRecent caps the limit accepted by Recent.
const MaxRecent = 200

// RunFromReport copies the counters of a report into a Run.
func RunFromReport(report risk.Report, requestID, provider, model string) Run {
	id := report.ReportID
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	return Run{
		ID:                 id,
		RequestID:          requestID,
		FileName:           report.FileName,
		Format:             report.Format,
		DocumentType:       string(report.DocumentType),
		ClassifierFallback: report.ClassificationFallback,
		ScoreStatus:        string(report.ScoreStatus),
		AggregateScore:     report.AggregateScore,
		ChunkCount:         report.Stats.Chunks,
		ClauseCount:        report.Stats.Clauses,
		UnscoredCount:      report.Stats.Unscored,
		HighCount:          report.Stats.High,
		WarningCount:       len(report.Warnings),
		Provider:           provider,
		Model:              model,
		DurationMs:         report.ProcessingMs,
		CreatedAt:          time.Now().UTC(),
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > MaxRecent {
		return MaxRecent
	}
	return limit
}
