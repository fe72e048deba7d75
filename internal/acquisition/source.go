package acquisition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Propgic/internal/property"
)

// Source supplies attribute records for a property. A source that has no
// data for the property returns (nil, nil).
type Source interface {
	Name() string
	Priority() int
	FetchByAddress(ctx context.Context, address string) (*property.Attributes, error)
	FetchByURL(ctx context.Context, listingURL string) (*property.Attributes, error)
}

// HostMatcher is implemented by sources tied to particular listing sites.
type HostMatcher interface {
	Hosts() []string
	Handles(host string) bool
}

// HTTPSource reads attribute records from a property data service that
// answers GET /api/v1/properties?address=... or ?url=... with the
// attribute record as JSON.
type HTTPSource struct {
	name       string
	baseURL    string
	token      string
	priority   int
	hosts      []string
	httpClient *http.Client
}

func NewHTTPSource(name, baseURL, token string, priority int, hosts []string) *HTTPSource {
	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			normalized = append(normalized, h)
		}
	}
	return &HTTPSource{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		priority:   priority,
		hosts:      normalized,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSource) Name() string  { return s.name }
func (s *HTTPSource) Priority() int { return s.priority }
func (s *HTTPSource) Hosts() []string { return s.hosts }

// Handles reports whether host is one of the source's listing sites or a
// subdomain of one. A source without hosts handles nothing.
func (s *HTTPSource) Handles(host string) bool {
	host = strings.ToLower(host)
	for _, h := range s.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (s *HTTPSource) FetchByAddress(ctx context.Context, address string) (*property.Attributes, error) {
	return s.fetch(ctx, url.Values{"address": {address}})
}

func (s *HTTPSource) FetchByURL(ctx context.Context, listingURL string) (*property.Attributes, error) {
	return s.fetch(ctx, url.Values{"url": {listingURL}})
}

func (s *HTTPSource) fetch(ctx context.Context, query url.Values) (*property.Attributes, error) {
	data, err := s.doReq(ctx, "/api/v1/properties?"+query.Encode())
	if err != nil || data == nil {
		return nil, err
	}
	var attrs property.Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	if attrs.DataSource == "" {
		attrs.DataSource = s.name
	}
	return &attrs, nil
}

// doReq returns a nil body for 404 so callers can tell "no data" from failure.
func (s *HTTPSource) doReq(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
