package scoring

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Propgic/internal/property"
)

// Profile is a named rubric: weighted criteria plus tier bands. Profiles
// are immutable once built and safe to share between goroutines.
type Profile struct {
	Name        string
	Description string
	Aliases     []string
	Criteria    []Criterion
	Tiers       []Tier
}

// Criterion is one weighted rubric entry.
type Criterion struct {
	Name   string
	Kind   string
	Weight decimal.Decimal
	eval   evaluator
}

// Evaluate returns the criterion's sub-score, or ok=false when the
// attributes it reads are unknown.
func (c Criterion) Evaluate(a *property.Attributes) (decimal.Decimal, bool) {
	return c.eval.evaluate(a)
}

// Tier is a score band. Min is nil only on the final catch-all band.
type Tier struct {
	Min     *decimal.Decimal
	Label   string
	Verdict string
}

// --- YAML documents ---

type profileDoc struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Aliases     []string       `yaml:"aliases"`
	Criteria    []criterionDoc `yaml:"criteria"`
	Tiers       []tierDoc      `yaml:"tiers"`
}

type criterionDoc struct {
	Name       string          `yaml:"name"`
	Weight     decimal.Decimal `yaml:"weight"`
	Band       *bandDoc        `yaml:"band"`
	Category   *categoryDoc    `yaml:"category"`
	Flag       *flagDoc        `yaml:"flag"`
	TruthTable *truthTableDoc  `yaml:"truth_table"`
	GatedBand  *gatedBandDoc   `yaml:"gated_band"`
}

type bandDoc struct {
	Field     string          `yaml:"field"`
	Direction string          `yaml:"direction"`
	Bands     []bandEntryDoc  `yaml:"bands"`
	Otherwise decimal.Decimal `yaml:"otherwise"`
}

type bandEntryDoc struct {
	Limit decimal.Decimal `yaml:"limit"`
	Score decimal.Decimal `yaml:"score"`
}

type categoryDoc struct {
	Field   string                     `yaml:"field"`
	Scores  map[string]decimal.Decimal `yaml:"scores"`
	Default decimal.Decimal            `yaml:"default"`
}

type flagDoc struct {
	Field     string          `yaml:"field"`
	WhenTrue  decimal.Decimal `yaml:"when_true"`
	WhenFalse decimal.Decimal `yaml:"when_false"`
}

type conditionDoc struct {
	Field   string           `yaml:"field"`
	Is      *bool            `yaml:"is"`
	AtLeast *decimal.Decimal `yaml:"at_least"`
}

type truthTableDoc struct {
	First      conditionDoc    `yaml:"first"`
	Second     conditionDoc    `yaml:"second"`
	Both       decimal.Decimal `yaml:"both"`
	FirstOnly  decimal.Decimal `yaml:"first_only"`
	SecondOnly decimal.Decimal `yaml:"second_only"`
	Neither    decimal.Decimal `yaml:"neither"`
}

type gatedBandDoc struct {
	Gate      conditionDoc    `yaml:"gate"`
	GateScore decimal.Decimal `yaml:"gate_score"`
	Band      bandDoc         `yaml:"band"`
}

type tierDoc struct {
	Min     *decimal.Decimal `yaml:"min"`
	Label   string           `yaml:"label"`
	Verdict string           `yaml:"verdict"`
}

// ParseProfile decodes and validates one YAML rubric profile.
func ParseProfile(data []byte) (*Profile, error) {
	var doc profileDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("parse profile: %w", err)}
	}
	return buildProfile(doc)
}

func buildProfile(doc profileDoc) (*Profile, error) {
	if doc.Name == "" {
		return nil, &ConfigurationError{Err: fmt.Errorf("profile name required")}
	}
	p := &Profile{
		Name:        doc.Name,
		Description: doc.Description,
		Aliases:     doc.Aliases,
	}

	seen := make(map[string]bool, len(doc.Criteria))
	for _, cd := range doc.Criteria {
		if cd.Name == "" {
			return nil, configErr(p.Name, "criterion name required")
		}
		if seen[cd.Name] {
			return nil, configErr(p.Name, "duplicate criterion %q", cd.Name)
		}
		seen[cd.Name] = true

		c, err := buildCriterion(cd)
		if err != nil {
			return nil, configErr(p.Name, "criterion %q: %v", cd.Name, err)
		}
		p.Criteria = append(p.Criteria, c)
	}
	if len(p.Criteria) == 0 {
		return nil, configErr(p.Name, "no criteria")
	}
	if err := validateWeights(p.Criteria); err != nil {
		return nil, configErr(p.Name, "%v", err)
	}

	tiers, err := buildTiers(doc.Tiers)
	if err != nil {
		return nil, configErr(p.Name, "%v", err)
	}
	p.Tiers = tiers
	return p, nil
}

func buildCriterion(cd criterionDoc) (Criterion, error) {
	c := Criterion{Name: cd.Name, Weight: cd.Weight}

	kinds := 0
	var err error
	if cd.Band != nil {
		kinds++
		c.Kind = "band"
		c.eval, err = buildBand(*cd.Band)
	}
	if cd.Category != nil {
		kinds++
		c.Kind = "category"
		c.eval, err = buildCategory(*cd.Category)
	}
	if cd.Flag != nil {
		kinds++
		c.Kind = "flag"
		c.eval, err = buildFlag(*cd.Flag)
	}
	if cd.TruthTable != nil {
		kinds++
		c.Kind = "truth_table"
		c.eval, err = buildTruthTable(*cd.TruthTable)
	}
	if cd.GatedBand != nil {
		kinds++
		c.Kind = "gated_band"
		c.eval, err = buildGatedBand(*cd.GatedBand)
	}
	if kinds != 1 {
		return c, fmt.Errorf("exactly one evaluator required, got %d", kinds)
	}
	return c, err
}

func field(name string, kind property.Kind) (property.Field, error) {
	f, ok := property.Lookup(name)
	if !ok {
		return f, fmt.Errorf("unknown field %q", name)
	}
	if f.Kind != kind {
		return f, fmt.Errorf("field %q is a %s, want %s", name, f.Kind, kind)
	}
	return f, nil
}

func buildBand(bd bandDoc) (bandEvaluator, error) {
	var e bandEvaluator
	f, err := field(bd.Field, property.KindNumber)
	if err != nil {
		return e, err
	}
	e.field = f
	switch bd.Direction {
	case "at_most":
	case "at_least":
		e.atLeast = true
	default:
		return e, fmt.Errorf("direction must be at_most or at_least, got %q", bd.Direction)
	}
	if len(bd.Bands) == 0 {
		return e, fmt.Errorf("band on %q has no cut-points", bd.Field)
	}
	for i, b := range bd.Bands {
		if err := checkScore(b.Score); err != nil {
			return e, err
		}
		if i > 0 {
			prev := bd.Bands[i-1].Limit
			if e.atLeast && !b.Limit.LessThan(prev) {
				return e, fmt.Errorf("at_least limits must strictly descend: %s after %s", b.Limit, prev)
			}
			if !e.atLeast && !b.Limit.GreaterThan(prev) {
				return e, fmt.Errorf("at_most limits must strictly ascend: %s after %s", b.Limit, prev)
			}
		}
		e.bands = append(e.bands, band{limit: b.Limit, score: b.Score})
	}
	if err := checkScore(bd.Otherwise); err != nil {
		return e, err
	}
	e.otherwise = bd.Otherwise
	return e, nil
}

func buildCategory(cd categoryDoc) (categoryEvaluator, error) {
	var e categoryEvaluator
	f, err := field(cd.Field, property.KindCategory)
	if err != nil {
		return e, err
	}
	e.field = f
	e.scores = make(map[string]decimal.Decimal, len(cd.Scores))
	for k, s := range cd.Scores {
		v, ok := f.Canonical(k)
		if !ok {
			return e, fmt.Errorf("%q is not a %s variant", k, cd.Field)
		}
		if _, dup := e.scores[v]; dup {
			return e, fmt.Errorf("%q scored twice on %s", v, cd.Field)
		}
		if err := checkScore(s); err != nil {
			return e, err
		}
		e.scores[v] = s
	}
	if err := checkScore(cd.Default); err != nil {
		return e, err
	}
	e.def = cd.Default
	return e, nil
}

func buildFlag(fd flagDoc) (flagEvaluator, error) {
	var e flagEvaluator
	f, err := field(fd.Field, property.KindFlag)
	if err != nil {
		return e, err
	}
	if err := checkScore(fd.WhenTrue); err != nil {
		return e, err
	}
	if err := checkScore(fd.WhenFalse); err != nil {
		return e, err
	}
	e.field, e.whenTrue, e.whenFalse = f, fd.WhenTrue, fd.WhenFalse
	return e, nil
}

func buildCondition(cd conditionDoc) (condition, error) {
	var c condition
	if cd.AtLeast != nil {
		f, err := field(cd.Field, property.KindNumber)
		if err != nil {
			return c, err
		}
		if cd.Is != nil {
			return c, fmt.Errorf("condition on %q sets both is and at_least", cd.Field)
		}
		c.field, c.atLeast = f, cd.AtLeast
		return c, nil
	}
	f, err := field(cd.Field, property.KindFlag)
	if err != nil {
		return c, err
	}
	c.field, c.want = f, true
	if cd.Is != nil {
		c.want = *cd.Is
	}
	return c, nil
}

func buildTruthTable(td truthTableDoc) (truthTableEvaluator, error) {
	var e truthTableEvaluator
	var err error
	if e.first, err = buildCondition(td.First); err != nil {
		return e, err
	}
	if e.second, err = buildCondition(td.Second); err != nil {
		return e, err
	}
	for _, s := range []decimal.Decimal{td.Both, td.FirstOnly, td.SecondOnly, td.Neither} {
		if err := checkScore(s); err != nil {
			return e, err
		}
	}
	e.both, e.firstOnly, e.secondOnly, e.none = td.Both, td.FirstOnly, td.SecondOnly, td.Neither
	return e, nil
}

func buildGatedBand(gd gatedBandDoc) (gatedBandEvaluator, error) {
	var e gatedBandEvaluator
	var err error
	if e.gate, err = buildCondition(gd.Gate); err != nil {
		return e, err
	}
	if err := checkScore(gd.GateScore); err != nil {
		return e, err
	}
	e.gateScore = gd.GateScore
	if e.band, err = buildBand(gd.Band); err != nil {
		return e, err
	}
	return e, nil
}

func buildTiers(docs []tierDoc) ([]Tier, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no tiers")
	}
	tiers := make([]Tier, 0, len(docs))
	for i, td := range docs {
		last := i == len(docs)-1
		if td.Label == "" {
			return nil, fmt.Errorf("tier %d has no label", i)
		}
		if last && td.Min != nil {
			return nil, fmt.Errorf("final tier %q must be a catch-all without min", td.Label)
		}
		if !last {
			if td.Min == nil {
				return nil, fmt.Errorf("tier %q needs a min", td.Label)
			}
			if i > 0 && !td.Min.LessThan(*docs[i-1].Min) {
				return nil, fmt.Errorf("tier minimums must strictly descend at %q", td.Label)
			}
		}
		tiers = append(tiers, Tier{Min: td.Min, Label: td.Label, Verdict: td.Verdict})
	}
	return tiers, nil
}

func checkScore(s decimal.Decimal) error {
	if s.LessThan(decimal.Zero) || s.GreaterThan(hundred) {
		return fmt.Errorf("score %s outside 0..100", s)
	}
	return nil
}
