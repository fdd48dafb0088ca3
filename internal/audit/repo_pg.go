package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Record inserts a run.
func (r *PGRepo) Record(ctx context.Context, run Run) error {
	const query = `
INSERT INTO analysis_runs (
	id, request_id, file_name, format, document_type, classifier_fallback, score_status, aggregate_score,
	chunk_count, clause_count, unscored_count, high_count, warning_count, provider, model, duration_ms, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	var score sql.NullFloat64
	if run.AggregateScore != nil {
		score = sql.NullFloat64{Float64: *run.AggregateScore, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		run.ID,
		run.RequestID,
		run.FileName,
		run.Format,
		run.DocumentType,
		run.ClassifierFallback,
		run.ScoreStatus,
		score,
		run.ChunkCount,
		run.ClauseCount,
		run.UnscoredCount,
		run.HighCount,
		run.WarningCount,
		run.Provider,
		run.Model,
		run.DurationMs,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis run: %w", err)
	}
	return nil
}

// Recent lists runs newest first.
func (r *PGRepo) Recent(ctx context.Context, limit int) ([]Run, error) {
	const query = `
SELECT id, COALESCE(request_id, ''), file_name, format, document_type, classifier_fallback, score_status,
	aggregate_score, chunk_count, clause_count, unscored_count, high_count, warning_count, provider, model,
	duration_ms, created_at
FROM analysis_runs
ORDER BY created_at DESC
LIMIT $1`

	rows, err := r.DB.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list analysis runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var score sql.NullFloat64
		if err := rows.Scan(
			&run.ID,
			&run.RequestID,
			&run.FileName,
			&run.Format,
			&run.DocumentType,
			&run.ClassifierFallback,
			&run.ScoreStatus,
			&score,
			&run.ChunkCount,
			&run.ClauseCount,
			&run.UnscoredCount,
			&run.HighCount,
			&run.WarningCount,
			&run.Provider,
			&run.Model,
			&run.DurationMs,
			&run.CreatedAt,
		); err != nil {
			return nil, err
		}
		if score.Valid {
			v := score.Float64
			run.AggregateScore = &v
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
