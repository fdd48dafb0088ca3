package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docrisk-backend/internal/chunk"
	"docrisk-backend/internal/llm"
	"docrisk-backend/internal/risk"
)

// ErrUnparseableOutput is returned when model output cannot be mapped to a result.
var ErrUnparseableOutput = errors.New("unparseable model output")

// LLMClassifier classifies a document from its leading text.
type LLMClassifier struct {
	LLM      llm.Client
	MaxChars int
}

// Classify sends the first MaxChars runes of text. Labels the model invents map to Other.
func (c LLMClassifier) Classify(ctx context.Context, text string) (risk.DocumentType, error) {
	labels := make([]string, 0, len(risk.DocumentTypes()))
	for _, d := range risk.DocumentTypes() {
		labels = append(labels, d.Label())
	}
	system, user, err := llm.RenderPrompt(llm.PromptClassify, map[string]any{
		"Labels": labels,
		"Text":   truncateRunes(text, c.MaxChars),
	})
	if err != nil {
		return "", err
	}
	raw, err := c.LLM.Complete(ctx, llm.Request{
		Stage:       llm.StageClassify,
		System:      system,
		Prompt:      user,
		JSON:        true,
		Temperature: llm.Temp(0),
		MaxTokens:   256,
	})
	if err != nil {
		return "", err
	}
	return parseDocumentType(raw)
}

func parseDocumentType(raw string) (risk.DocumentType, error) {
	var out struct {
		DocumentType string `json:"documentType"`
		DocType      string `json:"document_type"`
		Type         string `json:"type"`
	}
	if err := llm.DecodeJSON(raw, &out); err == nil {
		for _, v := range []string{out.DocumentType, out.DocType, out.Type} {
			if strings.TrimSpace(v) != "" {
				return risk.ParseDocumentType(v), nil
			}
		}
		return "", fmt.Errorf("%w: no documentType field", ErrUnparseableOutput)
	}
	bare := strings.Trim(strings.TrimSpace(raw), `"'.`)
	if bare == "" || strings.ContainsAny(bare, "{}[]\n") {
		return "", fmt.Errorf("%w: %q", ErrUnparseableOutput, truncateRunes(raw, 80))
	}
	return risk.ParseDocumentType(bare), nil
}

// LLMClauseExtractor asks the model for the risk-relevant clauses of a chunk.
type LLMClauseExtractor struct {
	LLM llm.Client
}

// ExtractClauses accepts a JSON array of strings or an object with a "clauses" array.
func (e LLMClauseExtractor) ExtractClauses(ctx context.Context, c chunk.Chunk, docType risk.DocumentType) ([]string, error) {
	system, user, err := llm.RenderPrompt(llm.PromptExtractClauses, map[string]any{
		"DocumentType": docType.Label(),
		"Focus":        FocusFor(docType),
		"Chunk":        c.Text,
	})
	if err != nil {
		return nil, err
	}
	raw, err := e.LLM.Complete(ctx, llm.Request{
		Stage:       llm.StageExtract,
		System:      system,
		Prompt:      user,
		JSON:        true,
		Temperature: llm.Temp(0),
	})
	if err != nil {
		return nil, err
	}
	return parseClauses(raw)
}

func parseClauses(raw string) ([]string, error) {
	block, err := llm.FirstJSONBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableOutput, err)
	}

	var items []json.RawMessage
	if strings.HasPrefix(block, "[") {
		if err := json.Unmarshal([]byte(block), &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparseableOutput, err)
		}
	} else {
		var obj struct {
			Clauses []json.RawMessage `json:"clauses"`
		}
		if err := json.Unmarshal([]byte(block), &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparseableOutput, err)
		}
		items = obj.Clauses
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := clauseText(item); text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

func clauseText(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Clause string `json:"clause"`
		Text   string `json:"text"`
	}
	if err := json.Unmarshal(item, &obj); err == nil {
		if obj.Clause != "" {
			return strings.TrimSpace(obj.Clause)
		}
		return strings.TrimSpace(obj.Text)
	}
	return ""
}

// LLMClauseScorer asks the model to rate one clause.
type LLMClauseScorer struct {
	LLM llm.Client
}

// ScoreClause returns an assessment or an error when the call fails or the
// level cannot be read.
func (s LLMClauseScorer) ScoreClause(ctx context.Context, clause risk.Clause, docType risk.DocumentType) (risk.Assessment, error) {
	system, user, err := llm.RenderPrompt(llm.PromptScoreClause, map[string]any{
		"DocumentType": docType.Label(),
		"Clause":       clause.Text,
	})
	if err != nil {
		return risk.Assessment{}, err
	}
	raw, err := s.LLM.Complete(ctx, llm.Request{
		Stage:       llm.StageScore,
		System:      system,
		Prompt:      user,
		JSON:        true,
		Temperature: llm.Temp(0),
		MaxTokens:   256,
	})
	if err != nil {
		return risk.Assessment{}, err
	}
	level, rationale, err := parseScore(raw)
	if err != nil {
		return risk.Assessment{}, err
	}
	return risk.Assessment{Clause: clause, RiskLevel: level, Rationale: rationale}, nil
}

func parseScore(raw string) (risk.Level, string, error) {
	var out struct {
		RiskLevel   string `json:"riskLevel"`
		RiskLevel2  string `json:"risk_level"`
		Level       string `json:"level"`
		Rationale   string `json:"rationale"`
		Explanation string `json:"explanation"`
	}
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnparseableOutput, err)
	}
	name := firstNonEmpty(out.RiskLevel, out.RiskLevel2, out.Level)
	level, ok := risk.ParseLevel(name)
	if !ok {
		return "", "", fmt.Errorf("%w: risk level %q", ErrUnparseableOutput, name)
	}
	return level, strings.TrimSpace(firstNonEmpty(out.Rationale, out.Explanation)), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
