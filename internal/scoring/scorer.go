package scoring

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Propgic/internal/property"
)

// AnalysisResult is the engine's complete output for one attribute record.
type AnalysisResult struct {
	Profile        string            `json:"profile"`
	Mode           Mode              `json:"mode"`
	Score          decimal.Decimal   `json:"score"`
	Coverage       decimal.Decimal   `json:"coverage"`
	Tier           string            `json:"tier"`
	Verdict        string            `json:"verdict"`
	Recommendation string            `json:"recommendation"`
	Strengths      []string          `json:"strengths"`
	Risks          []string          `json:"risks"`
	Criteria       []CriterionResult `json:"criteria"`
}

// Options configures an Engine. Zero values fall back to the defaults.
type Options struct {
	DefaultProfile string
	DefaultMode    Mode
	MaxStrengths   int
	MaxRisks       int
}

// Engine binds profiles and an aggregation mode to attribute records. It
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	registry *Registry
	opts     Options
	logger   *slog.Logger
}

// NewEngine creates an Engine over the given registry.
func NewEngine(registry *Registry, opts Options, logger *slog.Logger) *Engine {
	if opts.DefaultMode == "" {
		opts.DefaultMode = ModeStrict
	}
	if opts.MaxStrengths <= 0 {
		opts.MaxStrengths = DefaultMaxStrengths
	}
	if opts.MaxRisks <= 0 {
		opts.MaxRisks = DefaultMaxRisks
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, opts: opts, logger: logger}
}

func (e *Engine) Registry() *Registry { return e.registry }

// Evaluate scores attrs under the named profile. An empty profile or mode
// selects the configured default. The only errors are configuration errors.
func (e *Engine) Evaluate(attrs *property.Attributes, profile string, mode Mode) (*AnalysisResult, error) {
	if profile == "" {
		profile = e.opts.DefaultProfile
	}
	p, err := e.registry.Lookup(profile)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = e.opts.DefaultMode
	}
	if mode != ModeStrict && mode != ModeRenormalized {
		return nil, &ConfigurationError{Profile: p.Name, Err: ErrInvalidMode}
	}
	if attrs == nil {
		attrs = &property.Attributes{}
	}

	criteria := p.Score(attrs)
	score, coverage := Aggregate(criteria, mode)
	tier := p.Classify(score)
	strengths, risks := ExtractInsights(attrs, e.opts.MaxStrengths, e.opts.MaxRisks)

	e.logger.Debug("evaluated property",
		"profile", p.Name,
		"mode", mode,
		"score", score.StringFixed(2),
		"coverage", coverage.String(),
		"tier", tier.Label,
	)

	return &AnalysisResult{
		Profile:        p.Name,
		Mode:           mode,
		Score:          score,
		Coverage:       coverage,
		Tier:           tier.Label,
		Verdict:        tier.Verdict,
		Recommendation: Recommendation(score),
		Strengths:      strengths,
		Risks:          risks,
		Criteria:       criteria,
	}, nil
}

// Score evaluates every criterion of the profile in declaration order.
func (p *Profile) Score(attrs *property.Attributes) []CriterionResult {
	results := make([]CriterionResult, 0, len(p.Criteria))
	for _, c := range p.Criteria {
		r := CriterionResult{Name: c.Name, Weight: c.Weight}
		if s, ok := c.Evaluate(attrs); ok {
			r.Score = s
			r.Weighted = s.Mul(c.Weight)
			r.Available = true
		}
		results = append(results, r)
	}
	return results
}
