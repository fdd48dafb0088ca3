package risk

import "math"

// Aggregation is the outcome of combining clause assessments.
type Aggregation struct {
	Score  *float64
	Status ScoreStatus
	Stats  Stats
}

// Aggregate computes the weighted mean score of scored clauses on a 0-10 scale,
// rounded to one decimal. With no clauses the score is 0 and the status empty;
// when every clause is unscored there is no score and the status is unavailable.
func Aggregate(assessments []Assessment, p Policy) Aggregation {
	var stats Stats
	stats.Clauses = len(assessments)

	var weighted, weights float64
	for _, a := range assessments {
		switch a.RiskLevel {
		case LevelHigh:
			stats.High++
		case LevelMedium:
			stats.Medium++
		case LevelLow:
			stats.Low++
		}
		lp, ok := p.For(a.RiskLevel)
		if !ok {
			stats.Unscored++
			continue
		}
		stats.Scored++
		weighted += lp.Weight * lp.Score
		weights += lp.Weight
	}

	switch {
	case stats.Clauses == 0:
		zero := 0.0
		return Aggregation{Score: &zero, Status: ScoreEmpty, Stats: stats}
	case stats.Scored == 0:
		return Aggregation{Score: nil, Status: ScoreUnavailable, Stats: stats}
	}

	score := math.Round(weighted/weights*10) / 10
	return Aggregation{Score: &score, Status: ScoreScored, Stats: stats}
}

// Band names the level whose score the aggregate is closest to.
func (p Policy) Band(score float64) Level {
	l, m, h := p.Levels.Low.Score, p.Levels.Medium.Score, p.Levels.High.Score
	switch {
	case score >= (m+h)/2:
		return LevelHigh
	case score >= (l+m)/2:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Bucket groups clause texts by level, keeping report order.
func Bucket(assessments []Assessment) Buckets {
	b := Buckets{High: []string{}, Medium: []string{}, Low: []string{}, Unscored: []string{}}
	for _, a := range assessments {
		switch a.RiskLevel {
		case LevelHigh:
			b.High = append(b.High, a.Text)
		case LevelMedium:
			b.Medium = append(b.Medium, a.Text)
		case LevelLow:
			b.Low = append(b.Low, a.Text)
		default:
			b.Unscored = append(b.Unscored, a.Text)
		}
	}
	return b
}
