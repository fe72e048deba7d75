package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Propgic/internal/analysis"
	"github.com/MikeSquared-Agency/Propgic/internal/scoring"
	"github.com/MikeSquared-Agency/Propgic/internal/store"
)

type AnalysesHandler struct {
	store  store.Store
	runner *analysis.Runner
	engine *scoring.Engine
}

func NewAnalysesHandler(s store.Store, runner *analysis.Runner, engine *scoring.Engine) *AnalysesHandler {
	return &AnalysesHandler{store: s, runner: runner, engine: engine}
}

type CreateAnalysisRequest struct {
	PropertyAddress string `json:"property_address"`
	AnalyserType    string `json:"analyser_type,omitempty"`
}

type CreateByURLRequest struct {
	URL          string `json:"url"`
	AnalyserType string `json:"analyser_type,omitempty"`
}

// UpdateAnalysisRequest carries a partial update; nil fields are left alone.
type UpdateAnalysisRequest struct {
	Status         *store.AnalysisStatus `json:"status,omitempty"`
	Score          *decimal.Decimal      `json:"score,omitempty"`
	Tier           *string               `json:"tier,omitempty"`
	Recommendation *string               `json:"recommendation,omitempty"`
	ResultText     *string               `json:"result_text,omitempty"`
	Remarks        *string               `json:"remarks,omitempty"`
}

func (h *AnalysesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a := &store.Analysis{
		PropertyAddress: req.PropertyAddress,
		AnalyserType:    req.AnalyserType,
		SourceType:      store.SourceAddress,
	}
	if err := h.runner.Create(r.Context(), a); err != nil {
		writeRunnerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// CreateByURL records a listing URL and runs the analysis before replying.
func (h *AnalysesHandler) CreateByURL(w http.ResponseWriter, r *http.Request) {
	var req CreateByURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		writeError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}
	if req.AnalyserType == "" {
		req.AnalyserType = "anchor-url-v1"
	}

	a := &store.Analysis{
		PropertyAddress: req.URL,
		AnalyserType:    req.AnalyserType,
		SourceType:      store.SourceURL,
	}
	if err := h.runner.Create(r.Context(), a); err != nil {
		writeRunnerError(w, err)
		return
	}

	done, err := h.runner.Run(r.Context(), a.ID)
	if err != nil {
		writeRunnerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, done)
}

func (h *AnalysesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.AnalysisFilter{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := store.AnalysisStatus(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}
	h.list(w, r, filter)
}

// ListByType accepts a profile name or alias.
func (h *AnalysesHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "analyserType")
	if p, err := h.engine.Registry().Lookup(typ); err == nil {
		typ = p.Name
	}
	h.list(w, r, store.AnalysisFilter{AnalyserType: typ})
}

func (h *AnalysesHandler) list(w http.ResponseWriter, r *http.Request, filter store.AnalysisFilter) {
	analyses, err := h.store.ListAnalyses(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if analyses == nil {
		analyses = []*store.Analysis{}
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (h *AnalysesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	a, err := h.store.GetAnalysis(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AnalysesHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	events, err := h.store.GetAnalysisEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []*store.AnalysisEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *AnalysesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	a, err := h.store.GetAnalysis(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}

	var req UpdateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		a.Status = *req.Status
		if a.Status == store.StatusCompleted || a.Status == store.StatusFailed {
			now := time.Now().UTC()
			a.CompletedAt = &now
		}
	}
	if req.Score != nil {
		if req.Score.IsNegative() || req.Score.GreaterThan(decimal.NewFromInt(100)) {
			writeError(w, http.StatusBadRequest, "score must be within [0, 100]")
			return
		}
		score := req.Score.Round(2)
		a.Score = &score
	}
	if req.Tier != nil {
		a.Tier = *req.Tier
	}
	if req.Recommendation != nil {
		a.Recommendation = *req.Recommendation
	}
	if req.ResultText != nil {
		a.ResultText = *req.ResultText
	}
	if req.Remarks != nil {
		a.Remarks = *req.Remarks
	}

	if err := h.store.UpdateAnalysis(r.Context(), a); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AnalysesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.runner.Delete(r.Context(), id); err != nil {
		writeRunnerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnalysesHandler) Run(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	a, err := h.runner.Run(r.Context(), id)
	if err != nil {
		writeRunnerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid analysis id")
		return uuid.Nil, false
	}
	return id, true
}

func writeRunnerError(w http.ResponseWriter, err error) {
	var cfgErr *scoring.ConfigurationError
	switch {
	case errors.As(err, &cfgErr), errors.Is(err, analysis.ErrAddressRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, analysis.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, analysis.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
