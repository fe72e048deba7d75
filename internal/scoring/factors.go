package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Propgic/internal/property"
)

// CriterionResult captures one criterion's contribution to the total score.
type CriterionResult struct {
	Name      string          `json:"name"`
	Score     decimal.Decimal `json:"score"`
	Weight    decimal.Decimal `json:"weight"`
	Weighted  decimal.Decimal `json:"weighted"`
	Available bool            `json:"available"`
}

// evaluator turns the attributes a criterion reads into a sub-score in
// [0, 100]. ok is false when a required input is unknown.
type evaluator interface {
	evaluate(a *property.Attributes) (score decimal.Decimal, ok bool)
}

type band struct {
	limit decimal.Decimal
	score decimal.Decimal
}

// bandEvaluator walks ordered cut-points top-down; first match wins.
// at_most compares value <= limit, at_least compares value >= limit.
type bandEvaluator struct {
	field     property.Field
	atLeast   bool
	bands     []band
	otherwise decimal.Decimal
}

func (e bandEvaluator) evaluate(a *property.Attributes) (decimal.Decimal, bool) {
	v, ok := e.field.Number(a)
	if !ok {
		return decimal.Zero, false
	}
	return e.score(v), true
}

func (e bandEvaluator) score(v decimal.Decimal) decimal.Decimal {
	for _, b := range e.bands {
		if e.atLeast && v.GreaterThanOrEqual(b.limit) {
			return b.score
		}
		if !e.atLeast && v.LessThanOrEqual(b.limit) {
			return b.score
		}
	}
	return e.otherwise
}

// categoryEvaluator scores an enum variant; the unknown variant and any
// variant missing from the table fall to def.
type categoryEvaluator struct {
	field  property.Field
	scores map[string]decimal.Decimal
	def    decimal.Decimal
}

func (e categoryEvaluator) evaluate(a *property.Attributes) (decimal.Decimal, bool) {
	v, ok := e.field.Category(a)
	if !ok {
		return decimal.Zero, false
	}
	if s, found := e.scores[v]; found {
		return s, true
	}
	return e.def, true
}

type flagEvaluator struct {
	field     property.Field
	whenTrue  decimal.Decimal
	whenFalse decimal.Decimal
}

func (e flagEvaluator) evaluate(a *property.Attributes) (decimal.Decimal, bool) {
	v, ok := e.field.Flag(a)
	if !ok {
		return decimal.Zero, false
	}
	if v {
		return e.whenTrue, true
	}
	return e.whenFalse, true
}

// condition is a boolean test over one field: a flag compared to want, or a
// number compared against atLeast.
type condition struct {
	field   property.Field
	want    bool
	atLeast *decimal.Decimal
}

func (c condition) holds(a *property.Attributes) (bool, bool) {
	if c.atLeast != nil {
		v, ok := c.field.Number(a)
		if !ok {
			return false, false
		}
		return v.GreaterThanOrEqual(*c.atLeast), true
	}
	v, ok := c.field.Flag(a)
	if !ok {
		return false, false
	}
	return v == c.want, true
}

// truthTableEvaluator combines two conditions. Both inputs must be known.
type truthTableEvaluator struct {
	first, second                     condition
	both, firstOnly, secondOnly, none decimal.Decimal
}

func (e truthTableEvaluator) evaluate(a *property.Attributes) (decimal.Decimal, bool) {
	x, ok := e.first.holds(a)
	if !ok {
		return decimal.Zero, false
	}
	y, ok := e.second.holds(a)
	if !ok {
		return decimal.Zero, false
	}
	switch {
	case x && y:
		return e.both, true
	case x:
		return e.firstOnly, true
	case y:
		return e.secondOnly, true
	default:
		return e.none, true
	}
}

// gatedBandEvaluator short-circuits to gateScore when the gate holds, so
// the band field is only required when the gate does not.
type gatedBandEvaluator struct {
	gate      condition
	gateScore decimal.Decimal
	band      bandEvaluator
}

func (e gatedBandEvaluator) evaluate(a *property.Attributes) (decimal.Decimal, bool) {
	g, ok := e.gate.holds(a)
	if !ok {
		return decimal.Zero, false
	}
	if g {
		return e.gateScore, true
	}
	return e.band.evaluate(a)
}
