package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Propgic/internal/store"
)

// TestFullAnalysisLifecycle exercises the happy path against a real
// in-memory SQLite store: create → get → run → events → list → delete.
func TestFullAnalysisLifecycle(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	router := setupRouter(t, s, stubResolver{attrs: sampleAttributes()})

	// 1. Create
	w := do(router, "POST", "/api/v1/analyses", `{"property_address":"7 Beach Rd, Bondi NSW"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created store.Analysis
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, store.StatusPending, created.Status)
	assert.Equal(t, "anchor-v1", created.AnalyserType)
	id := created.ID.String()

	// 2. Get
	w = do(router, "GET", "/api/v1/analyses/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	// 3. Run
	w = do(router, "POST", "/api/v1/analyses/"+id+"/run", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var done store.Analysis
	require.NoError(t, json.NewDecoder(w.Body).Decode(&done))
	assert.Equal(t, store.StatusCompleted, done.Status)
	require.NotNil(t, done.Score)
	assert.NotEmpty(t, done.Tier)
	assert.Contains(t, done.Remarks, "from web sources")
	require.NotNil(t, done.Attributes)
	assert.Equal(t, 4, done.Attributes.Known())

	// persisted, not just returned
	w = do(router, "GET", "/api/v1/analyses/"+id, "")
	var fetched store.Analysis
	require.NoError(t, json.NewDecoder(w.Body).Decode(&fetched))
	assert.Equal(t, store.StatusCompleted, fetched.Status)
	assert.True(t, done.Score.Equal(*fetched.Score))

	// 4. Events
	w = do(router, "GET", "/api/v1/analyses/"+id+"/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	var events []store.AnalysisEvent
	require.NoError(t, json.NewDecoder(w.Body).Decode(&events))
	var names []string
	for _, e := range events {
		names = append(names, e.Event)
	}
	assert.Equal(t, []string{"created", "started", "completed"}, names)

	// 5. List by status and type
	w = do(router, "GET", "/api/v1/analyses?status=completed", "")
	var completed []store.Analysis
	require.NoError(t, json.NewDecoder(w.Body).Decode(&completed))
	assert.Len(t, completed, 1)

	w = do(router, "GET", "/api/v1/analyses/type/PropertyAnchor", "")
	var byType []store.Analysis
	require.NoError(t, json.NewDecoder(w.Body).Decode(&byType))
	assert.Len(t, byType, 1)

	// 6. Delete
	w = do(router, "DELETE", "/api/v1/analyses/"+id, "", "Authorization", "Bearer test-token")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(router, "GET", "/api/v1/analyses/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFailedAnalysisLifecycle(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	router := setupRouter(t, s, stubResolver{})

	w := do(router, "POST", "/api/v1/analyses", `{"property_address":"1 Nowhere Lane"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created store.Analysis
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	w = do(router, "POST", "/api/v1/analyses/"+created.ID.String()+"/run", "")
	require.Equal(t, http.StatusOK, w.Code)
	var failed store.Analysis
	require.NoError(t, json.NewDecoder(w.Body).Decode(&failed))
	assert.Equal(t, store.StatusFailed, failed.Status)
	assert.Equal(t, "Analysis failed: no property data available", failed.Remarks)
	assert.Nil(t, failed.Score)

	w = do(router, "GET", "/api/v1/stats", "", "Authorization", "Bearer test-token")
	var stats StatsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalFailed)
	assert.Empty(t, stats.AvgScore)
}
