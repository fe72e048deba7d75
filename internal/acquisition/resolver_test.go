package acquisition

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Propgic/internal/property"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// stubSource is an in-memory Source.
type stubSource struct {
	name     string
	priority int
	hosts    []string
	attrs    *property.Attributes
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Priority() int { return s.priority }
func (s *stubSource) Hosts() []string { return s.hosts }
func (s *stubSource) Handles(h string) bool {
	for _, host := range s.hosts {
		if host == h {
			return true
		}
	}
	return false
}

func (s *stubSource) get(ctx context.Context) (*property.Attributes, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil || s.attrs == nil {
		return nil, s.err
	}
	cp := *s.attrs
	return &cp, nil
}

func (s *stubSource) FetchByAddress(ctx context.Context, _ string) (*property.Attributes, error) {
	return s.get(ctx)
}

func (s *stubSource) FetchByURL(ctx context.Context, _ string) (*property.Attributes, error) {
	return s.get(ctx)
}

func TestHTTPSourceFetchByAddress(t *testing.T) {
	var gotAuth, gotAddress string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/properties", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotAddress = r.URL.Query().Get("address")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"propertyType":"House","hasClearTitle":true,"rentalYieldPercentage":5.2,"suburb":"Parramatta"}`))
	}))
	defer srv.Close()

	src := NewHTTPSource("corelogic", srv.URL+"/", "secret", 1, nil)
	attrs, err := src.FetchByAddress(context.Background(), "1 George St, Parramatta NSW")
	require.NoError(t, err)
	require.NotNil(t, attrs)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "1 George St, Parramatta NSW", gotAddress)
	assert.Equal(t, property.PropertyTypeHouse, *attrs.PropertyType)
	assert.True(t, *attrs.HasClearTitle)
	assert.True(t, decimal.RequireFromString("5.2").Equal(*attrs.RentalYieldPercentage))
	assert.Equal(t, "corelogic", attrs.DataSource)
	assert.Equal(t, "Parramatta", attrs.Suburb)
}

func TestHTTPSourceStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantNil bool
		wantErr bool
	}{
		{"not found is no data", http.StatusNotFound, `{"error":"not found"}`, true, false},
		{"server error", http.StatusBadGateway, "upstream down", true, true},
		{"bad json", http.StatusOK, "{", true, true},
		{"empty object", http.StatusOK, "{}", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			attrs, err := NewHTTPSource("s", srv.URL, "", 1, nil).FetchByURL(context.Background(), "https://example.com/1")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantNil, attrs == nil)
		})
	}
}

func TestHTTPSourceHandles(t *testing.T) {
	src := NewHTTPSource("domain", "http://localhost", "", 1, []string{" Domain.com.au ", ""})
	assert.Equal(t, []string{"domain.com.au"}, src.Hosts())
	assert.True(t, src.Handles("domain.com.au"))
	assert.True(t, src.Handles("www.domain.com.au"))
	assert.False(t, src.Handles("notdomain.com.au"))
	assert.False(t, src.Handles("realestate.com.au"))
	assert.False(t, NewHTTPSource("generic", "http://localhost", "", 1, nil).Handles("domain.com.au"))
}

func TestByAddressMergesByPriority(t *testing.T) {
	low := &stubSource{name: "secondary", priority: 2, attrs: &property.Attributes{
		HasClearTitle:    ptr(false),
		PropertyAgeYears: ptr(12),
		Suburb:           "Richmond",
	}}
	high := &stubSource{name: "primary", priority: 1, attrs: &property.Attributes{
		HasClearTitle: ptr(true),
	}}
	r := NewResolver([]Source{low, high}, time.Second, discardLogger())

	res, err := r.ByAddress(context.Background(), "5 Swan St, Richmond VIC")
	require.NoError(t, err)
	assert.Equal(t, []string{"primary", "secondary"}, res.Sources)
	assert.True(t, *res.Attributes.HasClearTitle, "primary value wins")
	assert.Equal(t, 12, *res.Attributes.PropertyAgeYears, "gaps filled from secondary")
	assert.Equal(t, "Richmond", res.Attributes.Suburb)
	assert.Equal(t, "primary,secondary", res.Attributes.DataSource)
}

func TestByAddressToleratesFailures(t *testing.T) {
	bad := &stubSource{name: "flaky", priority: 1, err: errors.New("boom")}
	good := &stubSource{name: "steady", priority: 2, attrs: &property.Attributes{HasEncumbrances: ptr(false)}}
	r := NewResolver([]Source{bad, good}, time.Second, discardLogger())

	res, err := r.ByAddress(context.Background(), "addr")
	require.NoError(t, err)
	assert.Equal(t, []string{"steady"}, res.Sources)
}

func TestByAddressNoData(t *testing.T) {
	r := NewResolver([]Source{
		&stubSource{name: "empty", priority: 1},
		&stubSource{name: "broken", priority: 2, err: errors.New("boom")},
	}, time.Second, discardLogger())

	_, err := r.ByAddress(context.Background(), "addr")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "broken: boom")

	_, err = NewResolver(nil, time.Second, discardLogger()).ByAddress(context.Background(), "addr")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = r.ByAddress(context.Background(), "   ")
	assert.Error(t, err)
}

func TestByAddressTimeout(t *testing.T) {
	slow := &stubSource{name: "slow", priority: 1, delay: time.Second, attrs: &property.Attributes{HasClearTitle: ptr(true)}}
	r := NewResolver([]Source{slow}, 20*time.Millisecond, discardLogger())

	start := time.Now()
	_, err := r.ByAddress(context.Background(), "addr")
	assert.ErrorIs(t, err, ErrNoData)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestByURLPrefersHostSource(t *testing.T) {
	site := &stubSource{name: "domain", priority: 5, hosts: []string{"www.domain.com.au"}, attrs: &property.Attributes{DaysOnMarket: ptr(14)}}
	other := &stubSource{name: "rea", priority: 1, hosts: []string{"www.realestate.com.au"}, attrs: &property.Attributes{DaysOnMarket: ptr(90)}}
	generic := &stubSource{name: "generic", priority: 1, attrs: &property.Attributes{DaysOnMarket: ptr(30)}}
	r := NewResolver([]Source{site, other, generic}, time.Second, discardLogger())

	res, err := r.ByURL(context.Background(), "https://www.domain.com.au/12-test-st")
	require.NoError(t, err)
	assert.Equal(t, []string{"domain"}, res.Sources)
	assert.Equal(t, 14, *res.Attributes.DaysOnMarket)
	assert.Zero(t, generic.calls.Load())
	assert.Zero(t, other.calls.Load())
}

func TestByURLFallsBackToGeneric(t *testing.T) {
	site := &stubSource{name: "domain", priority: 1, hosts: []string{"www.domain.com.au"}}
	generic := &stubSource{name: "generic", priority: 2, attrs: &property.Attributes{DaysOnMarket: ptr(30)}}
	r := NewResolver([]Source{site, generic}, time.Second, discardLogger())

	res, err := r.ByURL(context.Background(), "https://www.domain.com.au/12-test-st")
	require.NoError(t, err)
	assert.Equal(t, []string{"generic"}, res.Sources)
	assert.EqualValues(t, 1, site.calls.Load())

	res, err = r.ByURL(context.Background(), "https://unknown.example/listing/9")
	require.NoError(t, err)
	assert.Equal(t, []string{"generic"}, res.Sources)
}

func TestByURLInvalid(t *testing.T) {
	r := NewResolver(nil, time.Second, discardLogger())
	for _, u := range []string{"", "not a url", "/relative/path"} {
		_, err := r.ByURL(context.Background(), u)
		assert.Error(t, err, u)
	}
}
