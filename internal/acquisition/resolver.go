// Package acquisition gathers property attribute records from the
// configured data sources and merges them into one record for scoring.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Propgic/internal/metrics"
	"github.com/MikeSquared-Agency/Propgic/internal/property"
)

// ErrNoData is returned when no source had anything for the property.
var ErrNoData = errors.New("no property data available")

// Result is a merged attribute record plus the sources that contributed.
type Result struct {
	Attributes *property.Attributes
	Sources    []string
}

type Resolver struct {
	sources []Source
	timeout time.Duration
	logger  *slog.Logger
}

// NewResolver orders sources by ascending priority; on conflicting values
// the lower priority number wins.
func NewResolver(sources []Source, timeout time.Duration, logger *slog.Logger) *Resolver {
	ordered := append([]Source(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})
	return &Resolver{sources: ordered, timeout: timeout, logger: logger}
}

func (r *Resolver) Sources() []Source { return r.sources }

// ByAddress queries every source concurrently and merges what comes back.
func (r *Resolver) ByAddress(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("empty property address")
	}
	return r.fanOut(ctx, r.sources, func(ctx context.Context, s Source) (*property.Attributes, error) {
		return s.FetchByAddress(ctx, address)
	})
}

// ByURL tries the sources registered for the listing's host one at a time
// and returns the first hit. Without a hit it falls back to the sources
// that are not tied to any host.
func (r *Resolver) ByURL(ctx context.Context, listingURL string) (*Result, error) {
	u, err := url.Parse(strings.TrimSpace(listingURL))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid listing url %q", listingURL)
	}
	host := u.Hostname()

	var matched, generic []Source
	for _, s := range r.sources {
		hm, ok := s.(HostMatcher)
		switch {
		case ok && hm.Handles(host):
			matched = append(matched, s)
		case !ok || len(hm.Hosts()) == 0:
			generic = append(generic, s)
		}
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var errs []error
	for _, s := range matched {
		attrs, err := r.fetch(ctx, s, func(ctx context.Context, s Source) (*property.Attributes, error) {
			return s.FetchByURL(ctx, listingURL)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if attrs != nil {
			return &Result{Attributes: attrs, Sources: []string{s.Name()}}, nil
		}
	}

	res, err := r.fanOut(ctx, generic, func(ctx context.Context, s Source) (*property.Attributes, error) {
		return s.FetchByURL(ctx, listingURL)
	})
	if err != nil {
		return nil, errors.Join(append([]error{err}, errs...)...)
	}
	return res, nil
}

type fetchFunc func(ctx context.Context, s Source) (*property.Attributes, error)

func (r *Resolver) fanOut(ctx context.Context, sources []Source, fn fetchFunc) (*Result, error) {
	if len(sources) == 0 {
		return nil, ErrNoData
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	results := make([]*property.Attributes, len(sources))
	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sources {
		g.Go(func() error {
			attrs, err := r.fetch(gctx, s, fn)
			if err != nil {
				// one failing source must not cancel the others
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			results[i] = attrs
			return nil
		})
	}
	_ = g.Wait()

	merged := &property.Attributes{}
	var names []string
	for i, attrs := range results {
		if attrs == nil {
			continue
		}
		if merged.Suburb == "" {
			merged.Suburb = attrs.Suburb
		}
		if merged.ImageURL == "" {
			merged.ImageURL = attrs.ImageURL
		}
		merged.Merge(attrs)
		names = append(names, sources[i].Name())
	}
	if len(names) == 0 {
		return nil, errors.Join(append([]error{ErrNoData}, errs...)...)
	}
	merged.DataSource = strings.Join(names, ",")
	return &Result{Attributes: merged, Sources: names}, nil
}

func (r *Resolver) fetch(ctx context.Context, s Source, fn fetchFunc) (*property.Attributes, error) {
	start := time.Now()
	attrs, err := fn(ctx, s)
	elapsed := time.Since(start)
	switch {
	case err != nil:
		metrics.ObserveAcquisition(s.Name(), "error", elapsed)
		r.logger.Warn("attribute source failed", "source", s.Name(), "error", err)
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	case attrs == nil:
		metrics.ObserveAcquisition(s.Name(), "miss", elapsed)
		r.logger.Debug("attribute source had no data", "source", s.Name())
	default:
		metrics.ObserveAcquisition(s.Name(), "hit", elapsed)
		r.logger.Debug("attribute source hit", "source", s.Name(), "known", attrs.Known(), "elapsed", elapsed)
	}
	return attrs, nil
}

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
