package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Propgic/internal/property"
)

// ErrNotFound is returned by writes that target a missing analysis. Reads
// return (nil, nil) instead.
var ErrNotFound = errors.New("analysis not found")

type AnalysisStatus string

const (
	StatusPending    AnalysisStatus = "pending"
	StatusInProgress AnalysisStatus = "in_progress"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

func (s AnalysisStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// SourceType records how the property was identified.
type SourceType string

const (
	SourceAddress SourceType = "address"
	SourceURL     SourceType = "url"
)

type Analysis struct {
	ID              uuid.UUID      `json:"id"`
	PropertyAddress string         `json:"property_address"`
	AnalyserType    string         `json:"analyser_type"`
	SourceType      SourceType     `json:"source_type"`
	Status          AnalysisStatus `json:"status"`

	// Result, set on completion
	Score          *decimal.Decimal     `json:"score,omitempty"`
	Tier           string               `json:"tier,omitempty"`
	Recommendation string               `json:"recommendation,omitempty"`
	ResultText     string               `json:"result_text,omitempty"`
	Remarks        string               `json:"remarks,omitempty"`
	Attributes     *property.Attributes `json:"attributes,omitempty"`
	Strengths      []string             `json:"strengths,omitempty"`
	Risks          []string             `json:"risks,omitempty"`

	// Timestamps
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type AnalysisFilter struct {
	Status       *AnalysisStatus
	AnalyserType string
	Limit        int
	Offset       int
}

// AnalysisEvent is one entry in an analysis' audit trail.
type AnalysisEvent struct {
	ID         uuid.UUID              `json:"id"`
	AnalysisID uuid.UUID              `json:"analysis_id"`
	Event      string                 `json:"event"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type AnalysisStats struct {
	TotalPending    int                 `json:"total_pending"`
	TotalInProgress int                 `json:"total_in_progress"`
	TotalCompleted  int                 `json:"total_completed"`
	TotalFailed     int                 `json:"total_failed"`
	AvgScore        decimal.NullDecimal `json:"avg_score"`
}

type Store interface {
	CreateAnalysis(ctx context.Context, a *Analysis) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error)
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]*Analysis, error)
	UpdateAnalysis(ctx context.Context, a *Analysis) error
	DeleteAnalysis(ctx context.Context, id uuid.UUID) error

	// ClaimAnalysis moves an analysis to in_progress unless it is already
	// there. It reports false when another runner holds it or it is missing.
	ClaimAnalysis(ctx context.Context, id uuid.UUID) (bool, error)
	GetPendingAnalyses(ctx context.Context, limit int) ([]*Analysis, error)

	CreateAnalysisEvent(ctx context.Context, event *AnalysisEvent) error
	GetAnalysisEvents(ctx context.Context, analysisID uuid.UUID) ([]*AnalysisEvent, error)

	GetStats(ctx context.Context) (*AnalysisStats, error)

	Close() error
}
