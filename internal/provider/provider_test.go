package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/matsen/papermem/internal/bibtex"
)

// Compile-time checks that every client implements Querier.
var (
	_ Querier = (*DBLP)(nil)
	_ Querier = (*SemanticScholar)(nil)
	_ Querier = (*Scholar)(nil)
	_ Querier = (*CrossRef)(nil)
	_ Querier = (*Unpaywall)(nil)
)

const cycleGANTitle = "Unpaired Image-to-Image Translation using Cycle-Consistent Adversarial Networks"

// cycleGAN returns the Google Scholar style preprint entry used across provider tests.
func cycleGAN() bibtex.Entry {
	return bibtex.Entry{
		EntryType:   "article",
		CitationKey: "zhu2017unpaired",
		Fields: map[string]string{
			"title":   "Unpaired Image-to-Image Translation using {C}ycle-{C}onsistent Adversarial Networks",
			"author":  "Zhu, Jun-Yan and Park, Taesung and Isola, Phillip and Efros, Alexei A",
			"journal": "arXiv preprint arXiv:1703.10593",
			"year":    "2017",
		},
	}
}

// testOptions points a client at server with no rate limiting.
func testOptions(server *httptest.Server, extra ...ClientOption) []ClientOption {
	return append([]ClientOption{WithBaseURL(server.URL), WithRateLimit(rate.Inf)}, extra...)
}

func TestNew(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"dblp", DBLPName},
		{"semanticscholar", SemanticScholarName},
		{"S2", SemanticScholarName},
		{"scholar", ScholarName},
		{"google", ScholarName},
		{"crossref", CrossRefName},
		{" Unpaywall ", UnpaywallName},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			q, err := New(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Name())
		})
	}

	_, err := New("bing")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"crossref", "dblp", "scholar", "semanticscholar", "unpaywall"}, Keys())
	assert.Len(t, DefaultOrder, 5)
	assert.Equal(t, "dblp", DefaultOrder[0])

	for _, key := range DefaultOrder {
		got, ok := Canonical(key)
		assert.True(t, ok, key)
		assert.Equal(t, key, got)
	}
	got, ok := Canonical("GoogleScholar")
	assert.True(t, ok)
	assert.Equal(t, "scholar", got)
	_, ok = Canonical("bing")
	assert.False(t, ok)
}

func TestErrorHelpers(t *testing.T) {
	notFound := &APIError{Provider: DBLPName, StatusCode: 404, Message: "Not Found"}
	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", ErrNotFound)))
	assert.True(t, IsNoMatch(notFound))
	assert.True(t, IsNoMatch(fmt.Errorf("%w: two hits", ErrAmbiguous)))
	assert.False(t, IsNoMatch(&APIError{StatusCode: 500}))

	assert.True(t, IsAuthError(&APIError{StatusCode: 403}))
	assert.True(t, IsAuthError(ErrAuthError))
	assert.True(t, IsRateLimited(&APIError{StatusCode: 429}))
	assert.True(t, IsRateLimited(fmt.Errorf("%w: captcha", ErrRateLimited)))
	assert.False(t, IsRateLimited(errors.New("other")))

	assert.Contains(t, notFound.Error(), "DBLP")
	assert.Contains(t, notFound.Error(), "404")
}

func TestClient_HTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, IsAuthError},
		{http.StatusForbidden, IsAuthError},
		{http.StatusTooManyRequests, IsRateLimited},
		{http.StatusNotFound, IsNotFound},
		{http.StatusInternalServerError, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 500
		}},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := NewCrossRef(testOptions(server)...)
			_, err := c.Query(context.Background(), cycleGAN())
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewDBLP(WithBaseURL(url), WithRateLimit(rate.Inf))
	_, err := c.Query(context.Background(), cycleGAN())
	assert.ErrorIs(t, err, ErrNetworkError)
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewDBLP(testOptions(server)...)
	_, err := c.Query(ctx, cycleGAN())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_UserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.Write([]byte(`{"message":{"items":[]}}`))
	}))
	defer server.Close()

	c := NewCrossRef(testOptions(server, WithMailto("lab@example.org"))...)
	_, _ = c.Query(context.Background(), cycleGAN())
	assert.Equal(t, "papermem/1.0 (mailto:lab@example.org)", got)
}

func TestTitleMatches(t *testing.T) {
	assert.True(t, titleMatches(cycleGANTitle, "Unpaired Image-to-Image Translation Using Cycle-Consistent Adversarial Networks."))
	assert.True(t, titleMatches(cycleGANTitle, "Unpaired image to image translation using cycle consistent adversarial network"))
	assert.False(t, titleMatches(cycleGANTitle, "Image-to-Image Translation with Conditional Adversarial Networks"))
	assert.False(t, titleMatches("", ""))
}

func TestUniqueVenue(t *testing.T) {
	v, err := uniqueVenue([]string{"ICCV", " iccv ", ""})
	require.NoError(t, err)
	assert.Equal(t, "ICCV", v)

	_, err = uniqueVenue([]string{"ICCV", "TPAMI"})
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = uniqueVenue(nil)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestIsPreprintVenue(t *testing.T) {
	for _, v := range []string{"", "CoRR", "arXiv.org", "ArXiv", "bioRxiv", "SSRN Electronic Journal"} {
		assert.True(t, isPreprintVenue(v), v)
	}
	for _, v := range []string{"ICCV", "Nature", "Journal of Machine Learning Research"} {
		assert.False(t, isPreprintVenue(v), v)
	}
}

func TestQuery_NoTitle(t *testing.T) {
	entry := bibtex.Entry{EntryType: "misc", CitationKey: "x", Fields: map[string]string{"eprint": "1703.10593"}}
	for _, key := range DefaultOrder {
		q, err := New(key, WithMailto("lab@example.org"), WithBaseURL("http://127.0.0.1:1"))
		require.NoError(t, err)
		_, err = q.Query(context.Background(), entry)
		assert.ErrorIs(t, err, ErrNoMatch, key)
	}
}
