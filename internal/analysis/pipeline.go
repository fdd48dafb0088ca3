package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docrisk-backend/internal/chunk"
	"docrisk-backend/internal/extract"
	"docrisk-backend/internal/llm"
	"docrisk-backend/internal/risk"
	"docrisk-backend/internal/shared/metrics"
	"docrisk-backend/internal/shared/telemetry"
)

// ErrAnalysisTimeout is returned when the whole-analysis deadline passes before
// any clause was extracted. Later expiry yields a partial report instead.
var ErrAnalysisTimeout = errors.New("analysis timed out")

// Options tunes the pipeline. Zero values fall back to defaults.
type Options struct {
	ChunkMaxChars       int
	ClassifyMaxAttempts int
	MaxClauses          int
	MaxConcurrency      int
	AnalysisTimeout     time.Duration
	Policy              risk.Policy
}

func (o Options) withDefaults() Options {
	if o.ChunkMaxChars <= 0 {
		o.ChunkMaxChars = chunk.DefaultMaxChars
	}
	if o.ClassifyMaxAttempts <= 0 {
		o.ClassifyMaxAttempts = 3
	}
	if o.MaxClauses <= 0 {
		o.MaxClauses = 60
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 4
	}
	if o.Policy == (risk.Policy{}) {
		o.Policy = risk.DefaultPolicy()
	}
	return o
}

// Document is one uploaded file.
type Document struct {
	FileName string
	MimeType string
	Data     []byte
}

// Pipeline wires the stages together. It holds no per-request state and is safe
// for concurrent use.
type Pipeline struct {
	Classifier Classifier
	Extractor  ClauseExtractor
	Scorer     ClauseScorer
	Opts       Options

	sleep func(context.Context, time.Duration) error
}

// NewPipeline constructs a Pipeline.
func NewPipeline(classifier Classifier, extractor ClauseExtractor, scorer ClauseScorer, opts Options) *Pipeline {
	return &Pipeline{
		Classifier: classifier,
		Extractor:  extractor,
		Scorer:     scorer,
		Opts:       opts.withDefaults(),
		sleep:      llm.Sleep,
	}
}

// Analyze extracts text from doc and runs the remaining stages. Extraction
// errors are returned unchanged (extract.ErrUnsupportedFormat, *extract.ExtractionError).
func (p *Pipeline) Analyze(ctx context.Context, doc Document) (risk.Report, error) {
	start := time.Now()
	res, err := extract.ExtractTextFromBytes(ctx, doc.Data, doc.MimeType, doc.FileName)
	if err != nil {
		return risk.Report{}, err
	}
	return p.analyze(ctx, doc.FileName, res, start)
}

// AnalyzeText runs classification onwards over already extracted text.
func (p *Pipeline) AnalyzeText(ctx context.Context, fileName string, res extract.Result) (risk.Report, error) {
	return p.analyze(ctx, fileName, res, time.Now())
}

func (p *Pipeline) analyze(parent context.Context, fileName string, res extract.Result, start time.Time) (risk.Report, error) {
	opts := p.Opts
	ctx := parent
	if opts.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, opts.AnalysisTimeout)
		defer cancel()
	}

	var warnings []string

	docType, fallback := p.classify(ctx, res.Text)
	if fallback {
		metrics.IncClassifierFallback()
		warnings = append(warnings, "document type could not be determined; classified as Other")
	}

	chunks := nonBlank(chunk.Split(res.Text, opts.ChunkMaxChars))
	clauses, extractWarnings := p.extractClauses(ctx, chunks, docType)
	warnings = append(warnings, extractWarnings...)

	if err := parent.Err(); err != nil {
		return risk.Report{}, err
	}
	if ctx.Err() != nil && len(clauses) == 0 && len(chunks) > 0 {
		return risk.Report{}, fmt.Errorf("%w after %s", ErrAnalysisTimeout, opts.AnalysisTimeout)
	}

	if len(clauses) > opts.MaxClauses {
		warnings = append(warnings, fmt.Sprintf("clause list truncated to %d of %d clauses", opts.MaxClauses, len(clauses)))
		clauses = clauses[:opts.MaxClauses]
	}

	assessments := p.scoreClauses(ctx, clauses, docType)

	if err := parent.Err(); err != nil {
		return risk.Report{}, err
	}

	agg := risk.Aggregate(assessments, opts.Policy)
	agg.Stats.Chunks = len(chunks)
	if ctx.Err() != nil && agg.Stats.Unscored > 0 {
		metrics.IncAnalysisDeadlinePartial()
		telemetry.Warn("analysis.deadline_partial", map[string]any{
			"timeout":  opts.AnalysisTimeout.String(),
			"scored":   agg.Stats.Scored,
			"unscored": agg.Stats.Unscored,
		})
		warnings = append(warnings, fmt.Sprintf("analysis deadline of %s reached; %d of %d clauses left unscored",
			opts.AnalysisTimeout, agg.Stats.Unscored, len(assessments)))
	}
	metrics.AddClauses(agg.Stats.Scored, agg.Stats.Unscored)

	if warnings == nil {
		warnings = []string{}
	}
	report := risk.Report{
		ReportID:               uuid.NewString(),
		FileName:               fileName,
		Format:                 string(res.Format),
		Pages:                  res.Pages,
		DocumentType:           docType,
		DocumentTypeLabel:      docType.Label(),
		ClassificationFallback: fallback,
		Clauses:                assessments,
		AggregateScore:         agg.Score,
		ScoreStatus:            agg.Status,
		Summary:                risk.Summarize(docType, agg, assessments, opts.Policy),
		RiskSummary:            risk.Bucket(assessments),
		Stats:                  agg.Stats,
		Warnings:               warnings,
		ProcessingMs:           time.Since(start).Milliseconds(),
	}
	return report, nil
}

// classify retries failures with backoff and falls back to Other once attempts run out.
func (p *Pipeline) classify(ctx context.Context, text string) (risk.DocumentType, bool) {
	var lastErr error
	for attempt := 1; attempt <= p.Opts.ClassifyMaxAttempts; attempt++ {
		docType, err := p.Classifier.Classify(ctx, text)
		if err == nil {
			return docType, false
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, llm.ErrNotImplemented) || attempt == p.Opts.ClassifyMaxAttempts {
			break
		}
		if err := p.sleepFor(ctx, llm.Backoff(attempt)); err != nil {
			break
		}
	}
	telemetry.Warn("analysis.classify_fallback", map[string]any{
		"error": errString(lastErr),
	})
	return risk.DocOther, true
}

func (p *Pipeline) sleepFor(ctx context.Context, d time.Duration) error {
	if p.sleep == nil {
		return llm.Sleep(ctx, d)
	}
	return p.sleep(ctx, d)
}

// extractClauses fans out over chunks. Failed chunks add a warning and contribute nothing.
func (p *Pipeline) extractClauses(ctx context.Context, chunks []chunk.Chunk, docType risk.DocumentType) ([]risk.Clause, []string) {
	perChunk := make([][]string, len(chunks))
	failures := make([]error, len(chunks))

	var g errgroup.Group
	g.SetLimit(p.Opts.MaxConcurrency)
	for i, ch := range chunks {
		g.Go(func() error {
			if ctx.Err() != nil {
				failures[i] = ctx.Err()
				return nil
			}
			texts, err := p.Extractor.ExtractClauses(ctx, ch, docType)
			if err != nil {
				failures[i] = err
				return nil
			}
			perChunk[i] = texts
			return nil
		})
	}
	_ = g.Wait()

	var warnings []string
	var clauses []risk.Clause
	seen := make(map[string]struct{})
	for i, ch := range chunks {
		if failures[i] != nil {
			metrics.IncChunkExtractFailure()
			warnings = append(warnings, fmt.Sprintf("clause extraction failed for chunk %d: %s", ch.Index+1, errString(failures[i])))
			continue
		}
		for _, text := range perChunk[i] {
			key := dedupeKey(text)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			clauses = append(clauses, risk.Clause{Index: len(clauses), ChunkIndex: ch.Index, Text: strings.TrimSpace(text)})
		}
	}
	return clauses, warnings
}

// scoreClauses fans out over clauses. Failures become unscored assessments.
func (p *Pipeline) scoreClauses(ctx context.Context, clauses []risk.Clause, docType risk.DocumentType) []risk.Assessment {
	out := make([]risk.Assessment, len(clauses))

	var g errgroup.Group
	g.SetLimit(p.Opts.MaxConcurrency)
	for i, clause := range clauses {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i] = risk.Unscored(clause, scoringNote(err))
				return nil
			}
			a, err := p.Scorer.ScoreClause(ctx, clause, docType)
			if err != nil || !a.Scored() {
				if err == nil {
					err = ErrUnparseableOutput
				}
				out[i] = risk.Unscored(clause, scoringNote(err))
				return nil
			}
			a.Clause = clause
			a.Note = ""
			out[i] = a
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func scoringNote(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "scoring timed out"
	}
	return "scoring failed: " + errString(err)
}

func nonBlank(chunks []chunk.Chunk) []chunk.Chunk {
	out := chunks[:0:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) != "" {
			out = append(out, c)
		}
	}
	return out
}

func dedupeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(strings.TrimSpace(err.Error()), "\n", " ")
	if r := []rune(msg); len(r) > 200 {
		msg = string(r[:200])
	}
	return msg
}
