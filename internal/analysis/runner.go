// Package analysis drives analysis records through their lifecycle:
// acquire attributes, score them, persist the result, announce it.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Propgic/internal/acquisition"
	"github.com/MikeSquared-Agency/Propgic/internal/config"
	"github.com/MikeSquared-Agency/Propgic/internal/hermes"
	"github.com/MikeSquared-Agency/Propgic/internal/metrics"
	"github.com/MikeSquared-Agency/Propgic/internal/scoring"
	"github.com/MikeSquared-Agency/Propgic/internal/store"
)

var (
	ErrNotFound        = errors.New("analysis not found")
	ErrAddressRequired = errors.New("property address is required")
	// ErrAlreadyRunning is returned when another worker holds the claim.
	ErrAlreadyRunning  = errors.New("analysis already in progress")
)

// Resolver is the acquisition side of a run.
type Resolver interface {
	ByAddress(ctx context.Context, address string) (*acquisition.Result, error)
	ByURL(ctx context.Context, listingURL string) (*acquisition.Result, error)
}

type Runner struct {
	store    store.Store
	engine   *scoring.Engine
	resolver Resolver
	hermes   hermes.Client
	cfg      *config.Config
	logger   *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New wires a Runner. h may be nil when NATS is not configured.
func New(s store.Store, e *scoring.Engine, r Resolver, h hermes.Client, cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		store:    s,
		engine:   e,
		resolver: r,
		hermes:   h,
		cfg:      cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(2)
	go r.tickLoop(ctx)
	go r.timeoutLoop(ctx)
}

func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Runner) tickLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.cfg.Analysis.AutoRun {
				r.processPending(ctx)
			}
			r.publishStats(ctx)
		}
	}
}

func (r *Runner) processPending(ctx context.Context) {
	pending, err := r.store.GetPendingAnalyses(ctx, r.cfg.Analysis.BatchSize)
	if err != nil {
		r.logger.Error("failed to get pending analyses", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	r.logger.Info("processing pending analyses", "count", len(pending))
	for _, a := range pending {
		select {
		case <-r.stopCh:
			return
		default:
		}
		if _, err := r.Run(ctx, a.ID); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			r.logger.Warn("analysis run failed", "analysis_id", a.ID, "error", err)
		}
	}
}

// Create validates the analyser type, stores a pending record and
// announces it. Aliases are stored under the canonical profile name; an
// empty analyser type selects the default profile.
func (r *Runner) Create(ctx context.Context, a *store.Analysis) error {
	if a.AnalyserType == "" {
		a.AnalyserType = r.cfg.Scoring.DefaultProfile
	}
	p, err := r.engine.Registry().Lookup(a.AnalyserType)
	if err != nil {
		return err
	}
	a.AnalyserType = p.Name
	a.PropertyAddress = strings.TrimSpace(a.PropertyAddress)
	if a.PropertyAddress == "" {
		return ErrAddressRequired
	}
	a.Status = store.StatusPending
	if err := r.store.CreateAnalysis(ctx, a); err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}

	r.recordEvent(ctx, a.ID, "created", map[string]interface{}{
		"analyser_type": a.AnalyserType,
		"source_type":   string(a.SourceType),
	})
	r.publish(hermes.SubjectAnalysisCreated(a.ID.String()), hermes.AnalysisCreatedEvent{
		AnalysisID:      a.ID.String(),
		PropertyAddress: a.PropertyAddress,
		AnalyserType:    a.AnalyserType,
		SourceType:      string(a.SourceType),
	})
	r.logger.Info("analysis created", "analysis_id", a.ID, "analyser_type", a.AnalyserType, "source_type", a.SourceType)
	return nil
}

// Run claims the analysis and executes it synchronously. The returned
// record reflects the final state, Completed or Failed; a failed run is
// not an error.
func (r *Runner) Run(ctx context.Context, id uuid.UUID) (*store.Analysis, error) {
	a, err := r.store.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	claimed, err := r.store.ClaimAnalysis(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("claim analysis: %w", err)
	}
	if !claimed {
		return nil, ErrAlreadyRunning
	}
	a.Status = store.StatusInProgress

	start := time.Now()
	r.recordEvent(ctx, a.ID, "started", nil)
	r.publish(hermes.SubjectAnalysisStarted(a.ID.String()), hermes.AnalysisStartedEvent{
		AnalysisID:   a.ID.String(),
		AnalyserType: a.AnalyserType,
	})

	result, err := r.execute(ctx, a)
	if err != nil {
		r.fail(a, err)
	}
	metrics.ObserveAnalysis(a.AnalyserType, string(a.Status), time.Since(start))

	// The terminal write must land even if the caller has gone away.
	finishCtx := context.WithoutCancel(ctx)
	if err := r.store.UpdateAnalysis(finishCtx, a); err != nil {
		return nil, fmt.Errorf("update analysis: %w", err)
	}
	r.announceResult(finishCtx, a, result)
	return a, nil
}

// runError carries remarks that are stored verbatim.
type runError struct{ remarks string }

func (e *runError) Error() string { return e.remarks }

func (r *Runner) execute(ctx context.Context, a *store.Analysis) (*scoring.AnalysisResult, error) {
	profile, err := r.engine.Registry().Lookup(a.AnalyserType)
	if err != nil {
		return nil, &runError{remarks: "No analyser found for type: " + a.AnalyserType}
	}

	var res *acquisition.Result
	if a.SourceType == store.SourceURL {
		res, err = r.resolver.ByURL(ctx, a.PropertyAddress)
	} else {
		res, err = r.resolver.ByAddress(ctx, a.PropertyAddress)
	}
	if err != nil {
		return nil, err
	}

	result, err := r.engine.Evaluate(res.Attributes, profile.Name, "")
	if err != nil {
		return nil, err
	}
	metrics.ObserveScore(result.Profile, result.Score.InexactFloat64(), result.Coverage.InexactFloat64())

	now := time.Now().UTC()
	score := result.Score
	a.Status = store.StatusCompleted
	a.Score = &score
	a.Tier = result.Tier
	a.Recommendation = result.Recommendation
	a.ResultText = result.Verdict
	a.Remarks = completionRemarks(profile, a.SourceType)
	a.Attributes = res.Attributes
	a.Strengths = result.Strengths
	a.Risks = result.Risks
	a.CompletedAt = &now

	r.logger.Info("analysis completed",
		"analysis_id", a.ID,
		"profile", result.Profile,
		"score", score.StringFixed(2),
		"coverage", result.Coverage.String(),
		"tier", result.Tier,
		"sources", res.Sources,
	)
	return result, nil
}

func (r *Runner) fail(a *store.Analysis, err error) {
	remarks := "Analysis failed: " + err.Error()
	var re *runError
	if errors.As(err, &re) {
		remarks = re.remarks
	}
	markFailed(a, remarks)
	r.logger.Warn("analysis failed", "analysis_id", a.ID, "remarks", remarks)
}

// markFailed moves a to Failed and drops any earlier result.
func markFailed(a *store.Analysis, remarks string) {
	now := time.Now().UTC()
	a.Status = store.StatusFailed
	a.Score = nil
	a.Tier, a.Recommendation, a.ResultText = "", "", ""
	a.Strengths, a.Risks = nil, nil
	a.Attributes = nil
	a.Remarks = remarks
	a.CompletedAt = &now
}

func (r *Runner) announceResult(ctx context.Context, a *store.Analysis, result *scoring.AnalysisResult) {
	id := a.ID.String()
	if a.Status == store.StatusFailed {
		r.recordEvent(ctx, a.ID, "failed", map[string]interface{}{"remarks": a.Remarks})
		r.publish(hermes.SubjectAnalysisFailed(id), hermes.AnalysisFailedEvent{AnalysisID: id, Error: a.Remarks})
		return
	}

	score := a.Score.StringFixed(2)
	r.recordEvent(ctx, a.ID, "completed", map[string]interface{}{
		"score": score,
		"tier":  a.Tier,
	})
	evt := hermes.AnalysisCompletedEvent{
		AnalysisID:     id,
		AnalyserType:   a.AnalyserType,
		Score:          score,
		Tier:           a.Tier,
		Recommendation: a.Recommendation,
	}
	if result != nil {
		evt.Coverage = result.Coverage.String()
	}
	if a.Attributes != nil && a.Attributes.DataSource != "" {
		evt.Sources = strings.Split(a.Attributes.DataSource, ",")
	}
	r.publish(hermes.SubjectAnalysisCompleted(id), evt)
}

func completionRemarks(p *scoring.Profile, source store.SourceType) string {
	from := "web sources"
	if source == store.SourceURL {
		from = "direct URL"
	}
	return fmt.Sprintf("Analysis completed successfully using %s analyzer with %d weighted attributes from %s",
		p.Name, len(p.Criteria), from)
}

// Delete removes the record and its events.
func (r *Runner) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.store.DeleteAnalysis(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	r.publish(hermes.SubjectAnalysisDeleted(id.String()), map[string]interface{}{"analysis_id": id.String()})
	return nil
}

func (r *Runner) publishStats(ctx context.Context) {
	if r.hermes == nil {
		return
	}
	stats, err := r.store.GetStats(ctx)
	if err != nil {
		r.logger.Warn("failed to get stats", "error", err)
		return
	}
	evt := hermes.StatsEvent{
		Pending:    stats.TotalPending,
		InProgress: stats.TotalInProgress,
		Completed:  stats.TotalCompleted,
		Failed:     stats.TotalFailed,
		Timestamp:  time.Now().UTC(),
	}
	if stats.AvgScore.Valid {
		evt.AvgScore = stats.AvgScore.Decimal.StringFixed(2)
	}
	r.publish(hermes.SubjectStats, evt)
}

// SetupSubscriptions accepts analysis requests over NATS. Each request
// creates a pending record; the tick loop picks it up.
func (r *Runner) SetupSubscriptions() {
	if r.hermes == nil {
		return
	}
	_ = r.hermes.Subscribe(hermes.SubjectAnalysisRequest, func(_ string, data []byte) {
		var req hermes.AnalysisRequestEvent
		if err := json.Unmarshal(data, &req); err != nil {
			r.logger.Warn("invalid analysis request event", "error", err)
			return
		}
		a := &store.Analysis{
			PropertyAddress: req.Address,
			AnalyserType:    req.AnalyserType,
			SourceType:      store.SourceAddress,
		}
		if req.URL != "" {
			a.PropertyAddress = req.URL
			a.SourceType = store.SourceURL
			if a.AnalyserType == "" {
				a.AnalyserType = "anchor-url-v1"
			}
		}
		if err := r.Create(context.Background(), a); err != nil {
			r.logger.Error("failed to create analysis from NATS request", "error", err)
		}
	})
}

func (r *Runner) recordEvent(ctx context.Context, id uuid.UUID, event string, payload map[string]interface{}) {
	if err := r.store.CreateAnalysisEvent(ctx, &store.AnalysisEvent{
		AnalysisID: id,
		Event:      event,
		Payload:    payload,
	}); err != nil {
		r.logger.Warn("failed to record analysis event", "analysis_id", id, "event", event, "error", err)
	}
}

func (r *Runner) publish(subject string, data interface{}) {
	if r.hermes == nil {
		return
	}
	if err := r.hermes.Publish(subject, data); err != nil {
		r.logger.Warn("failed to publish", "subject", subject, "error", err)
	}
}
