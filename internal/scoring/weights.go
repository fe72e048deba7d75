package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// WeightSum returns the total of all criterion weights.
func (p *Profile) WeightSum() decimal.Decimal {
	return sumWeights(p.Criteria)
}

func sumWeights(criteria []Criterion) decimal.Decimal {
	total := decimal.Zero
	for _, c := range criteria {
		total = total.Add(c.Weight)
	}
	return total
}

// validateWeights checks that weights sum to exactly 1.0 and none are negative.
// Weights are decimals, so no tolerance is applied.
func validateWeights(criteria []Criterion) error {
	for _, c := range criteria {
		if c.Weight.IsNegative() {
			return fmt.Errorf("negative weight on %q: %s", c.Name, c.Weight)
		}
	}
	if sum := sumWeights(criteria); !sum.Equal(one) {
		return fmt.Errorf("weights sum to %s, must sum to 1.0", sum)
	}
	return nil
}
