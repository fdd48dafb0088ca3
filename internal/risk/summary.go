package risk

import (
	"fmt"
	"strings"
)

// Summarize writes a deterministic plain-language summary. It quotes the high-risk
// clauses so the reader sees what drove the score.
func Summarize(docType DocumentType, agg Aggregation, assessments []Assessment, p Policy) string {
	subject := "document"
	if docType != "" && docType != DocOther {
		subject = docType.Label()
	}

	switch agg.Status {
	case ScoreEmpty:
		return fmt.Sprintf("No risk-relevant clauses were found in this %s.", subject)
	case ScoreUnavailable:
		return fmt.Sprintf("Risk could not be scored: all %d %s of this %s are unscored because scoring failed or timed out.",
			agg.Stats.Clauses, plural(agg.Stats.Clauses, "clause", "clauses"), subject)
	}

	var b strings.Builder
	score := 0.0
	if agg.Score != nil {
		score = *agg.Score
	}
	fmt.Fprintf(&b, "%s overall risk %.1f/10 (%s) across %d %s: %d high, %d medium, %d low.",
		capitalize(subject), score, p.Band(score), agg.Stats.Clauses, plural(agg.Stats.Clauses, "clause", "clauses"),
		agg.Stats.High, agg.Stats.Medium, agg.Stats.Low)

	var quotes []string
	for _, a := range assessments {
		if a.RiskLevel != LevelHigh {
			continue
		}
		if len(quotes) == p.Summary.MaxQuotes {
			break
		}
		quotes = append(quotes, fmt.Sprintf("%q", truncate(a.Text, p.Summary.QuoteChars)))
	}
	if len(quotes) > 0 {
		b.WriteString(" High-risk: ")
		b.WriteString(strings.Join(quotes, "; "))
		if agg.Stats.High > len(quotes) {
			fmt.Fprintf(&b, " and %d more", agg.Stats.High-len(quotes))
		}
		b.WriteString(".")
	}
	if agg.Stats.Unscored > 0 {
		fmt.Fprintf(&b, " %d %s could not be scored.", agg.Stats.Unscored, plural(agg.Stats.Unscored, "clause", "clauses"))
	}
	return b.String()
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "…"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
