package risk

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicyYAML []byte

// LevelPolicy is the contribution of one risk level to the aggregate.
type LevelPolicy struct {
	Score  float64 `yaml:"score" json:"score"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Policy controls aggregation and summary wording.
type Policy struct {
	Levels struct {
		Low    LevelPolicy `yaml:"low" json:"low"`
		Medium LevelPolicy `yaml:"medium" json:"medium"`
		High   LevelPolicy `yaml:"high" json:"high"`
	} `yaml:"levels" json:"levels"`
	Summary struct {
		QuoteChars int `yaml:"quote_chars" json:"quoteChars"`
		MaxQuotes  int `yaml:"max_quotes" json:"maxQuotes"`
	} `yaml:"summary" json:"summary"`
}

// DefaultPolicy returns the embedded policy.
func DefaultPolicy() Policy {
	p, err := ParsePolicy(defaultPolicyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded risk policy: %v", err))
	}
	return p
}

// LoadPolicy reads a policy file, or returns the default when path is empty.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read risk policy: %w", err)
	}
	p, err := ParsePolicy(raw)
	if err != nil {
		return Policy{}, fmt.Errorf("risk policy %s: %w", path, err)
	}
	return p, nil
}

// ParsePolicy decodes and validates a YAML policy. Unknown keys are rejected.
func ParsePolicy(raw []byte) (Policy, error) {
	var p Policy
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("decode: %w", err)
	}
	if p.Summary.QuoteChars <= 0 {
		p.Summary.QuoteChars = 200
	}
	if p.Summary.MaxQuotes <= 0 {
		p.Summary.MaxQuotes = 5
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// ErrInvalidPolicy wraps every policy validation failure.
var ErrInvalidPolicy = errors.New("invalid risk policy")

// Validate checks score and weight ordering across levels. Adding a high clause
// to a report must never lower its aggregate.
func (p Policy) Validate() error {
	l, m, h := p.Levels.Low, p.Levels.Medium, p.Levels.High
	for name, lp := range map[string]LevelPolicy{"low": l, "medium": m, "high": h} {
		if lp.Score < 0 || lp.Score > 10 {
			return fmt.Errorf("%w: %s score %.2f outside 0-10", ErrInvalidPolicy, name, lp.Score)
		}
		if lp.Weight <= 0 {
			return fmt.Errorf("%w: %s weight must be positive", ErrInvalidPolicy, name)
		}
	}
	if !(h.Score >= m.Score && m.Score >= l.Score) {
		return fmt.Errorf("%w: scores must satisfy high >= medium >= low", ErrInvalidPolicy)
	}
	if !(h.Weight >= m.Weight && m.Weight >= l.Weight) || h.Weight <= l.Weight {
		return fmt.Errorf("%w: weights must satisfy high >= medium >= low with high > low", ErrInvalidPolicy)
	}
	return nil
}

// For returns the policy of a scored level.
func (p Policy) For(level Level) (LevelPolicy, bool) {
	switch level {
	case LevelLow:
		return p.Levels.Low, true
	case LevelMedium:
		return p.Levels.Medium, true
	case LevelHigh:
		return p.Levels.High, true
	default:
		return LevelPolicy{}, false
	}
}
