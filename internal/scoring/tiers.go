package scoring

import "github.com/shopspring/decimal"

// Classify returns the first tier whose minimum the score reaches; the last
// tier catches everything below.
func (p *Profile) Classify(score decimal.Decimal) Tier {
	for _, t := range p.Tiers {
		if t.Min == nil || score.GreaterThanOrEqual(*t.Min) {
			return t
		}
	}
	return p.Tiers[len(p.Tiers)-1]
}

// Recommendation maps a score to the short action label shown beside it.
func Recommendation(score decimal.Decimal) string {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(75)):
		return "Strong Buy"
	case score.GreaterThanOrEqual(decimal.NewFromInt(60)):
		return "Consider"
	case score.GreaterThanOrEqual(decimal.NewFromInt(40)):
		return "Neutral"
	default:
		return "Caution"
	}
}
