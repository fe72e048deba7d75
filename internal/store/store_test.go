package store

import (
	"context"
	"strings"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Propgic/internal/property"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStatusValues(t *testing.T) {
	statuses := []AnalysisStatus{StatusPending, StatusInProgress, StatusCompleted, StatusFailed}
	expected := []string{"pending", "in_progress", "completed", "failed"}
	for i, s := range statuses {
		assert.Equal(t, expected[i], string(s))
		assert.True(t, s.Valid())
	}
	assert.False(t, AnalysisStatus("archived").Valid())
}

func TestQueriesPlaceholders(t *testing.T) {
	status := StatusCompleted
	filter := AnalysisFilter{Status: &status, AnalyserType: "anchor-v1", Limit: 5, Offset: 10}

	query, args, err := newQueries(sq.Dollar).listAnalyses(filter)
	require.NoError(t, err)
	assert.Contains(t, query, "status = $1")
	assert.Contains(t, query, "analyser_type = $2")
	assert.Contains(t, query, "ORDER BY created_at DESC LIMIT 5 OFFSET 10")
	assert.Equal(t, []interface{}{"completed", "anchor-v1"}, args)

	query, _, err = newQueries(sq.Question).listAnalyses(AnalysisFilter{})
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.True(t, strings.HasSuffix(query, "LIMIT 100"), query)
}

func TestQueriesClaimSkipsInProgress(t *testing.T) {
	id := uuid.New()
	query, args, err := newQueries(sq.Dollar).claimAnalysis(id, time.Now())
	require.NoError(t, err)
	assert.Contains(t, query, "status <> $4")
	assert.Equal(t, "in_progress", args[0])
	assert.Equal(t, id.String(), args[2])
}

func TestSQLiteCreateAndGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a := &Analysis{PropertyAddress: "12 Example St, Sydney NSW", AnalyserType: "anchor-v1"}
	require.NoError(t, s.CreateAnalysis(ctx, a))
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, SourceAddress, a.SourceType)

	got, err := s.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.PropertyAddress, got.PropertyAddress)
	assert.Equal(t, StatusPending, got.Status)
	assert.Nil(t, got.Score)
	assert.Nil(t, got.Attributes)
	assert.Nil(t, got.CompletedAt)

	missing, err := s.GetAnalysis(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteUpdateRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a := &Analysis{PropertyAddress: "https://www.domain.com.au/1-test-st", AnalyserType: "anchor-url-v1", SourceType: SourceURL}
	require.NoError(t, s.CreateAnalysis(ctx, a))

	score := decimal.RequireFromString("87.25")
	yield := decimal.RequireFromString("5.4")
	house := property.PropertyTypeHouse
	clear := true
	done := time.Now().UTC().Truncate(time.Second)

	a.Status = StatusCompleted
	a.Score = &score
	a.Tier = "Excellent"
	a.Recommendation = "Strong Buy"
	a.ResultText = "Excellent Anchor Property - Highly recommended for portfolio"
	a.Remarks = "done"
	a.Attributes = &property.Attributes{PropertyType: &house, HasClearTitle: &clear, RentalYieldPercentage: &yield}
	a.Strengths = []string{"Clear property title"}
	a.Risks = []string{"No significant risks identified"}
	a.CompletedAt = &done
	require.NoError(t, s.UpdateAnalysis(ctx, a))

	got, err := s.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, SourceURL, got.SourceType)
	require.NotNil(t, got.Score)
	assert.True(t, score.Equal(*got.Score))
	assert.Equal(t, "Excellent", got.Tier)
	assert.Equal(t, a.Strengths, got.Strengths)
	assert.Equal(t, a.Risks, got.Risks)
	require.NotNil(t, got.Attributes)
	assert.Equal(t, property.PropertyTypeHouse, *got.Attributes.PropertyType)
	assert.True(t, yield.Equal(*got.Attributes.RentalYieldPercentage))
	assert.Equal(t, 3, got.Attributes.Known())
	require.NotNil(t, got.CompletedAt)
	assert.True(t, done.Equal(*got.CompletedAt))

	ghost := &Analysis{ID: uuid.New(), Status: StatusPending}
	assert.ErrorIs(t, s.UpdateAnalysis(ctx, ghost), ErrNotFound)
}

func TestSQLiteListAndPending(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i, typ := range []string{"anchor-v1", "anchor-v1", "anchor-url-v1"} {
		a := &Analysis{PropertyAddress: "addr", AnalyserType: typ}
		if i == 1 {
			a.Status = StatusFailed
		}
		require.NoError(t, s.CreateAnalysis(ctx, a))
	}

	all, err := s.ListAnalyses(ctx, AnalysisFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byType, err := s.ListAnalyses(ctx, AnalysisFilter{AnalyserType: "anchor-v1"})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	failed := StatusFailed
	byStatus, err := s.ListAnalyses(ctx, AnalysisFilter{Status: &failed})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, StatusFailed, byStatus[0].Status)

	pending, err := s.GetPendingAnalyses(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	limited, err := s.GetPendingAnalyses(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteClaim(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a := &Analysis{PropertyAddress: "addr", AnalyserType: "anchor-v1"}
	require.NoError(t, s.CreateAnalysis(ctx, a))

	ok, err := s.ClaimAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ClaimAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")

	ok, err = s.ClaimAnalysis(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)
}

func TestSQLiteDeleteCascadesEvents(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a := &Analysis{PropertyAddress: "addr", AnalyserType: "anchor-v1"}
	require.NoError(t, s.CreateAnalysis(ctx, a))
	require.NoError(t, s.CreateAnalysisEvent(ctx, &AnalysisEvent{
		AnalysisID: a.ID,
		Event:      "created",
		Payload:    map[string]interface{}{"analyser_type": "anchor-v1"},
	}))
	require.NoError(t, s.CreateAnalysisEvent(ctx, &AnalysisEvent{AnalysisID: a.ID, Event: "started"}))

	events, err := s.GetAnalysisEvents(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "anchor-v1", events[0].Payload["analyser_type"])
	assert.Nil(t, events[1].Payload)

	require.NoError(t, s.DeleteAnalysis(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteAnalysis(ctx, a.ID), ErrNotFound)

	events, err = s.GetAnalysisEvents(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSQLiteStats(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalPending)
	assert.False(t, stats.AvgScore.Valid)

	for _, v := range []string{"80", "90"} {
		score := decimal.RequireFromString(v)
		a := &Analysis{PropertyAddress: "addr", AnalyserType: "anchor-v1", Status: StatusCompleted, Score: &score}
		require.NoError(t, s.CreateAnalysis(ctx, a))
	}
	require.NoError(t, s.CreateAnalysis(ctx, &Analysis{PropertyAddress: "addr", AnalyserType: "anchor-v1"}))

	stats, err = s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalPending)
	assert.Equal(t, 2, stats.TotalCompleted)
	require.True(t, stats.AvgScore.Valid)
	assert.True(t, decimal.NewFromInt(85).Equal(stats.AvgScore.Decimal))
}
