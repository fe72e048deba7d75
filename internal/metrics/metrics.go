// Package metrics holds the Prometheus collectors exported on the metrics port.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "propgic",
		Name:      "analyses_total",
		Help:      "Analyses finished, by analyser type and final status.",
	}, []string{"analyser_type", "status"})

	AnalysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "propgic",
		Name:      "analysis_duration_seconds",
		Help:      "Wall time from claim to completion of an analysis.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
	}, []string{"analyser_type"})

	Scores = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "propgic",
		Name:      "score",
		Help:      "Distribution of overall scores.",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	}, []string{"profile"})

	Coverage = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "propgic",
		Name:      "coverage_ratio",
		Help:      "Share of rubric weight backed by known attributes.",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	}, []string{"profile"})

	AcquisitionRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "propgic",
		Name:      "acquisition_requests_total",
		Help:      "Attribute source lookups, by source and outcome (hit, miss, error).",
	}, []string{"source", "outcome"})

	AcquisitionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "propgic",
		Name:      "acquisition_duration_seconds",
		Help:      "Latency of attribute source lookups.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
)

// Register adds every collector to reg. Collectors that are already
// registered are left as they are.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		AnalysesTotal, AnalysisDuration, Scores, Coverage, AcquisitionRequests, AcquisitionDuration,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAcquisition records one source lookup.
func ObserveAcquisition(source, outcome string, elapsed time.Duration) {
	AcquisitionRequests.WithLabelValues(source, outcome).Inc()
	AcquisitionDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveScore records a finished evaluation.
func ObserveScore(profile string, score, coverage float64) {
	Scores.WithLabelValues(profile).Observe(score)
	Coverage.WithLabelValues(profile).Observe(coverage)
}

// ObserveAnalysis records the final state of an analysis run.
func ObserveAnalysis(analyserType, status string, elapsed time.Duration) {
	AnalysesTotal.WithLabelValues(analyserType, status).Inc()
	AnalysisDuration.WithLabelValues(analyserType).Observe(elapsed.Seconds())
}
