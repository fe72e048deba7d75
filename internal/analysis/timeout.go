package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/Propgic/internal/hermes"
	"github.com/MikeSquared-Agency/Propgic/internal/metrics"
	"github.com/MikeSquared-Agency/Propgic/internal/store"
)

const timeoutCheckInterval = 30 * time.Second

func (r *Runner) timeoutLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(timeoutCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.checkTimeouts(ctx)
		}
	}
}

// checkTimeouts fails analyses that have sat in_progress past the run
// timeout, so they can be run again.
func (r *Runner) checkTimeouts(ctx context.Context) {
	timeout := r.cfg.RunTimeout()
	if timeout <= 0 {
		return
	}
	status := store.StatusInProgress
	active, err := r.store.ListAnalyses(ctx, store.AnalysisFilter{Status: &status})
	if err != nil {
		r.logger.Error("failed to get active analyses for timeout check", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, a := range active {
		if a.Status != store.StatusInProgress || now.Sub(a.UpdatedAt) <= timeout {
			continue
		}

		started := a.UpdatedAt
		r.logger.Warn("analysis timed out", "analysis_id", a.ID, "started", started)
		markFailed(a, fmt.Sprintf("Analysis failed: timed out after %s in progress", timeout))
		if err := r.store.UpdateAnalysis(ctx, a); err != nil {
			r.logger.Error("failed to mark analysis as timed out", "analysis_id", a.ID, "error", err)
			continue
		}
		metrics.ObserveAnalysis(a.AnalyserType, "timed_out", now.Sub(started))
		r.recordEvent(ctx, a.ID, "timed_out", map[string]interface{}{"remarks": a.Remarks})
		r.publish(hermes.SubjectAnalysisFailed(a.ID.String()), hermes.AnalysisFailedEvent{
			AnalysisID: a.ID.String(),
			Error:      a.Remarks,
		})
	}
}
