// Package risk holds the document risk domain: document types, clause
// assessments, the scoring policy and the aggregation into a report.
package risk

import (
	"strings"
	"unicode"
)

// DocumentType labels the kind of financing or compliance document.
type DocumentType string

const (
	DocTermSheet             DocumentType = "term_sheet"
	DocSAFE                  DocumentType = "safe"
	DocSAFT                  DocumentType = "saft"
	DocSPA                   DocumentType = "spa"
	DocShareholdersAgreement DocumentType = "shareholders_agreement"
	DocCapTable              DocumentType = "cap_table"
	DocDueDiligence          DocumentType = "due_diligence"
	DocKYC                   DocumentType = "kyc"
	DocOther                 DocumentType = "other"
)

var docLabels = map[DocumentType]string{
	DocTermSheet:             "Term Sheet",
	DocSAFE:                  "SAFE",
	DocSAFT:                  "SAFT",
	DocSPA:                   "SPA",
	DocShareholdersAgreement: "Shareholders' Agreement",
	DocCapTable:              "Cap Table",
	DocDueDiligence:          "Due Diligence",
	DocKYC:                   "KYC",
	DocOther:                 "Other",
}

var docAliases = map[string]DocumentType{
	"termsheet":                          DocTermSheet,
	"simple_agreement_for_future_equity": DocSAFE,
	"simple_agreement_for_future_tokens": DocSAFT,
	"share_purchase_agreement":           DocSPA,
	"stock_purchase_agreement":           DocSPA,
	"shareholder_agreement":              DocShareholdersAgreement,
	"shareholders_agreement":             DocShareholdersAgreement,
	"stockholders_agreement":             DocShareholdersAgreement,
	"sha":                                DocShareholdersAgreement,
	"captable":                           DocCapTable,
	"capitalization_table":               DocCapTable,
	"dd":                                 DocDueDiligence,
	"due_diligence_report":               DocDueDiligence,
	"know_your_customer":                 DocKYC,
}

// DocumentTypes returns every label in display order.
func DocumentTypes() []DocumentType {
	return []DocumentType{
		DocTermSheet, DocSAFE, DocSAFT, DocSPA, DocShareholdersAgreement,
		DocCapTable, DocDueDiligence, DocKYC, DocOther,
	}
}

// Label returns the human-readable name.
func (d DocumentType) Label() string {
	if l, ok := docLabels[d]; ok {
		return l
	}
	return docLabels[DocOther]
}

// ParseDocumentType accepts tags ("term_sheet") and human labels ("Term Sheet",
// "Shareholders' Agreement") in any case. Unknown input maps to DocOther.
func ParseDocumentType(s string) DocumentType {
	key := normalizeKey(s)
	if key == "" {
		return DocOther
	}
	for _, d := range DocumentTypes() {
		if key == string(d) || key == normalizeKey(d.Label()) {
			return d
		}
	}
	if d, ok := docAliases[key]; ok {
		return d
	}
	return DocOther
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("'", "", "’", "").Replace(s)
	var b strings.Builder
	lastUnderscore := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// Level is a clause risk rating.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelUnscored Level = "unscored"
)

// ParseLevel maps model output onto a Level. "critical" and "severe" count as high.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "minor":
		return LevelLow, true
	case "medium", "moderate", "med":
		return LevelMedium, true
	case "high", "critical", "severe":
		return LevelHigh, true
	default:
		return "", false
	}
}

// Clause is a risk-relevant span of document text. It has no identity beyond position.
type Clause struct {
	Index      int    `json:"index"`
	ChunkIndex int    `json:"chunkIndex"`
	Text       string `json:"text"`
}

// Assessment is a clause plus its rating. Note explains why a clause is unscored.
type Assessment struct {
	Clause
	RiskLevel Level  `json:"riskLevel"`
	Rationale string `json:"rationale"`
	Note      string `json:"note,omitempty"`
}

// Scored reports whether the clause received a rating.
func (a Assessment) Scored() bool {
	return a.RiskLevel == LevelLow || a.RiskLevel == LevelMedium || a.RiskLevel == LevelHigh
}

// Unscored builds the assessment used when scoring failed.
func Unscored(c Clause, note string) Assessment {
	return Assessment{Clause: c, RiskLevel: LevelUnscored, Note: note}
}

// ScoreStatus says whether AggregateScore carries a number.
type ScoreStatus string

const (
	ScoreScored      ScoreStatus = "scored"
	ScoreUnavailable ScoreStatus = "unavailable"
	ScoreEmpty       ScoreStatus = "empty"
)

// Buckets groups clause texts by level.
type Buckets struct {
	High     []string `json:"high"`
	Medium   []string `json:"medium"`
	Low      []string `json:"low"`
	Unscored []string `json:"unscored"`
}

// Stats counts what the pipeline processed.
type Stats struct {
	Chunks   int `json:"chunks"`
	Clauses  int `json:"clauses"`
	Scored   int `json:"scored"`
	Unscored int `json:"unscored"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Report is the result of analysing one document.
type Report struct {
	ReportID               string       `json:"reportId"`
	FileName               string       `json:"fileName"`
	Format                 string       `json:"format"`
	Pages                  int          `json:"pages,omitempty"`
	DocumentType           DocumentType `json:"documentType"`
	DocumentTypeLabel      string       `json:"documentTypeLabel"`
	ClassificationFallback bool         `json:"classificationFallback"`
	Clauses                []Assessment `json:"clauses"`
	// AggregateScore is nil when ScoreStatus is unavailable.
	AggregateScore *float64    `json:"aggregateScore"`
	ScoreStatus    ScoreStatus `json:"scoreStatus"`
	Summary        string      `json:"summary"`
	RiskSummary    Buckets     `json:"riskSummary"`
	Stats          Stats       `json:"stats"`
	Warnings       []string    `json:"warnings"`
	ProcessingMs   int64       `json:"processingMs"`
}
