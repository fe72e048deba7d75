package scoring

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects how unknown criteria affect the final score.
type Mode string

const (
	// ModeStrict treats an unknown criterion as contributing zero.
	ModeStrict Mode = "strict"
	// ModeRenormalized rescales the known criteria to the weight they cover.
	ModeRenormalized Mode = "renormalized"
)

// ParseMode accepts strict or renormalized, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStrict:
		return ModeStrict, nil
	case ModeRenormalized:
		return ModeRenormalized, nil
	}
	return "", &ConfigurationError{Err: ErrInvalidMode}
}

// Aggregate combines per-criterion results into a 0–100 score rounded to
// two places, and returns the summed weight of the criteria that were known.
//
//	strict:        round(Σ weight·sub, 2)
//	renormalized:  round(Σ weight·sub / coverage, 2), 0 when coverage is 0
func Aggregate(results []CriterionResult, mode Mode) (score, coverage decimal.Decimal) {
	total := decimal.Zero
	coverage = decimal.Zero
	for _, r := range results {
		if !r.Available {
			continue
		}
		total = total.Add(r.Weighted)
		coverage = coverage.Add(r.Weight)
	}

	if mode == ModeRenormalized {
		if coverage.IsZero() {
			return decimal.Zero, coverage
		}
		total = total.Div(coverage)
	}
	return clamp(total.Round(2)), coverage
}

func clamp(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(hundred) {
		return hundred
	}
	return v
}
