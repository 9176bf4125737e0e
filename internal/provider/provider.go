// Package provider holds HTTP clients for the bibliographic services used to
// find the published version of a preprint citation.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/papermem/internal/bibtex"
)

// Provider display names.
const (
	DBLPName            = "DBLP"
	SemanticScholarName = "Semantic Scholar"
	ScholarName         = "Google Scholar"
	CrossRefName        = "CrossRef"
	UnpaywallName       = "Unpaywall"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 8 << 20

	userAgent = "papermem/1.0"
)

// DefaultOrder is the default provider chain, by config key.
var DefaultOrder = []string{"dblp", "semanticscholar", "scholar", "crossref", "unpaywall"}

// Match is a provider's answer for one citation. Citation providers fill
// BibTeX; venue providers fill only Venue.
type Match struct {
	BibTeX string `json:"bibtex,omitempty"`
	Venue  string `json:"venue,omitempty"`
}

// Querier looks up the published version of a preprint citation.
type Querier interface {
	Name() string
	Query(ctx context.Context, e bibtex.Entry) (*Match, error)
}

// New creates the provider registered under key (see DefaultOrder).
// Aliases such as "s2" and "google" are accepted.
func New(key string, opts ...ClientOption) (Querier, error) {
	canonical, ok := Canonical(key)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	switch canonical {
	case "dblp":
		return NewDBLP(opts...), nil
	case "semanticscholar":
		return NewSemanticScholar(opts...), nil
	case "scholar":
		return NewScholar(opts...), nil
	case "crossref":
		return NewCrossRef(opts...), nil
	default:
		return NewUnpaywall(opts...), nil
	}
}

// Canonical maps a provider key or alias to its canonical key.
func Canonical(key string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "dblp":
		return "dblp", true
	case "semanticscholar", "s2":
		return "semanticscholar", true
	case "scholar", "google", "googlescholar":
		return "scholar", true
	case "crossref":
		return "crossref", true
	case "unpaywall":
		return "unpaywall", true
	default:
		return "", false
	}
}

// Keys returns the canonical provider keys, sorted.
func Keys() []string {
	keys := append([]string(nil), DefaultOrder...)
	sort.Strings(keys)
	return keys
}

// client is the rate-limited HTTP plumbing shared by every provider.
type client struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	mailto     string
}

// ClientOption configures a provider client.
type ClientOption func(*client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithMailto sets the contact email sent to polite-pool APIs.
func WithMailto(email string) ClientOption {
	return func(c *client) {
		c.mailto = email
	}
}

// WithRateLimit overrides the provider's request rate.
func WithRateLimit(limit rate.Limit) ClientOption {
	return func(c *client) {
		c.limiter = rate.NewLimiter(limit, 1)
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

func newClient(name, baseURL string, limit rate.Limit, opts []ClientOption) client {
	c := client{
		name:       name,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(limit, 1),
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Name returns the provider's display name.
func (c *client) Name() string {
	return c.name
}

// get fetches rawURL and returns the body of a 2xx response.
func (c *client) get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := userAgent
	if c.mailto != "" {
		ua += " (mailto:" + c.mailto + ")"
	}
	req.Header.Set("User-Agent", ua)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNetworkError, c.name, err)
	}
	defer resp.Body.Close()

	if err := c.checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", ErrNetworkError, c.name, err)
	}
	return body, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func (c *client) checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return fmt.Errorf("%w: %s status %d", ErrAuthError, c.name, resp.StatusCode)
	}
	if resp.StatusCode == 429 {
		return fmt.Errorf("%w: %s status %d", ErrRateLimited, c.name, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}
	return nil
}
