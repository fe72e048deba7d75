package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Propgic/internal/property"
	"github.com/MikeSquared-Agency/Propgic/internal/scoring"
)

// ScoringHandler exposes the engine directly, without storing anything.
type ScoringHandler struct {
	engine *scoring.Engine
}

func NewScoringHandler(e *scoring.Engine) *ScoringHandler {
	return &ScoringHandler{engine: e}
}

type EvaluateRequest struct {
	Profile    string               `json:"profile,omitempty"`
	Mode       string               `json:"mode,omitempty"`
	Attributes *property.Attributes `json:"attributes"`
}

type TierSummary struct {
	Label   string           `json:"label"`
	Min     *decimal.Decimal `json:"min,omitempty"`
	Verdict string           `json:"verdict"`
}

type ProfileSummary struct {
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Aliases       []string      `json:"aliases,omitempty"`
	CriteriaCount int           `json:"criteria_count"`
	Tiers         []TierSummary `json:"tiers"`
}

func (h *ScoringHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var mode scoring.Mode
	if req.Mode != "" {
		m, err := scoring.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = m
	}

	result, err := h.engine.Evaluate(req.Attributes, req.Profile, mode)
	if err != nil {
		var cfgErr *scoring.ConfigurationError
		if errors.As(err, &cfgErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ScoringHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	profiles := h.engine.Registry().Profiles()
	out := make([]ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		s := ProfileSummary{
			Name:          p.Name,
			Description:   p.Description,
			Aliases:       p.Aliases,
			CriteriaCount: len(p.Criteria),
		}
		for _, t := range p.Tiers {
			s.Tiers = append(s.Tiers, TierSummary{Label: t.Label, Min: t.Min, Verdict: t.Verdict})
		}
		out = append(out, s)
	}
	writeJSON(w, http.StatusOK, out)
}
