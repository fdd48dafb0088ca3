package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrisk-backend/internal/llm"
	"docrisk-backend/internal/risk"
)

func TestParseDocumentType(t *testing.T) {
	cases := map[string]risk.DocumentType{
		`{"documentType": "Term Sheet"}`:      risk.DocTermSheet,
		`{"document_type": "saft"}`:           risk.DocSAFT,
		`Sure: {"type": "Cap Table"}`:         risk.DocCapTable,
		`Shareholders' Agreement`:             risk.DocShareholdersAgreement,
		`"SPA".`:                              risk.DocSPA,
		`{"documentType": "Employment Deal"}`: risk.DocOther,
	}
	for raw, want := range cases {
		got, err := parseDocumentType(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := parseDocumentType(`{"confidence": 0.2}`)
	assert.ErrorIs(t, err, ErrUnparseableOutput)
	_, err = parseDocumentType("   ")
	assert.ErrorIs(t, err, ErrUnparseableOutput)
}

func TestParseClauses(t *testing.T) {
	got, err := parseClauses(`["a", " b ", ""]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = parseClauses(`{"clauses": [{"clause": "c"}, {"text": "d"}, "e"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "e"}, got)

	got, err = parseClauses(`{"clauses": []}`)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseClauses("I could not find any clauses.")
	assert.ErrorIs(t, err, ErrUnparseableOutput)
}

func TestParseScore(t *testing.T) {
	level, rationale, err := parseScore(`{"clause": "x", "risk_level": "critical", "explanation": "bad"}`)
	require.NoError(t, err)
	assert.Equal(t, risk.LevelHigh, level)
	assert.Equal(t, "bad", rationale)

	level, _, err = parseScore(`{"riskLevel": "Medium"}`)
	require.NoError(t, err)
	assert.Equal(t, risk.LevelMedium, level)

	_, _, err = parseScore(`{"riskLevel": ""}`)
	assert.ErrorIs(t, err, ErrUnparseableOutput)
}

func TestFocusFor(t *testing.T) {
	assert.Contains(t, FocusFor(risk.DocSAFE), "valuation cap")
	assert.Contains(t, FocusFor(risk.DocTermSheet), "liquidation preference")
	assert.Empty(t, FocusFor(risk.DocOther))
}

func TestClassifierLeavesRoomForReasoningModels(t *testing.T) {
	var got llm.Request
	c := LLMClassifier{MaxChars: 3000, LLM: llm.ClientFunc(func(_ context.Context, req llm.Request) (string, error) {
		got = req
		return `{"documentType": "SAFE"}`, nil
	})}

	docType, err := c.Classify(context.Background(), "SIMPLE AGREEMENT FOR FUTURE EQUITY")
	require.NoError(t, err)
	assert.Equal(t, risk.DocSAFE, docType)
	assert.Equal(t, llm.StageClassify, got.Stage)
	assert.GreaterOrEqual(t, got.MaxTokens, 256)
}
