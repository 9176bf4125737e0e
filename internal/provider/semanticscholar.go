package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/matsen/papermem/internal/bibtex"
)

const (
	// SemanticScholarBaseURL is the Semantic Scholar Graph API base URL.
	SemanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"

	// semanticScholarFields are the fields requested for every lookup.
	semanticScholarFields = "title,venue,year,citationStyles"
)

// SemanticScholar queries the Semantic Scholar Graph API.
type SemanticScholar struct {
	client
}

// NewSemanticScholar creates a Semantic Scholar client. Without an API key
// the shared public rate limit applies.
func NewSemanticScholar(opts ...ClientOption) *SemanticScholar {
	return &SemanticScholar{client: newClient(SemanticScholarName, SemanticScholarBaseURL, rate.Limit(1), opts)}
}

type s2Paper struct {
	PaperID        string `json:"paperId"`
	Title          string `json:"title"`
	Venue          string `json:"venue"`
	Year           int    `json:"year"`
	CitationStyles *struct {
		BibTeX string `json:"bibtex"`
	} `json:"citationStyles"`
}

// Query looks the entry up by arXiv id when it has one, otherwise by title
// match. A paper whose venue is still a preprint server is no match.
func (s *SemanticScholar) Query(ctx context.Context, e bibtex.Entry) (*Match, error) {
	title, err := queryTitle(e)
	if err != nil {
		return nil, err
	}

	var p *s2Paper
	if id := bibtex.ArXivID(e); id != "" {
		p, err = s.byArXivID(ctx, id)
	} else {
		p, err = s.byTitle(ctx, title)
	}
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %v", ErrNoMatch, err)
		}
		return nil, err
	}

	if !titleMatches(title, p.Title) {
		return nil, fmt.Errorf("%w: Semantic Scholar returned %q", ErrNoMatch, p.Title)
	}
	if isPreprintVenue(p.Venue) {
		return nil, ErrNoMatch
	}

	m := &Match{Venue: p.Venue}
	if p.CitationStyles != nil && p.CitationStyles.BibTeX != "" {
		if text, _, err := publishedBibTeX(s.name, p.CitationStyles.BibTeX); err == nil {
			m.BibTeX = text
		}
	}
	return m, nil
}

func (s *SemanticScholar) byArXivID(ctx context.Context, id string) (*s2Paper, error) {
	params := url.Values{}
	params.Set("fields", semanticScholarFields)

	body, err := s.get(ctx, s.baseURL+"/paper/arXiv:"+url.PathEscape(id)+"?"+params.Encode(), s.header())
	if err != nil {
		return nil, err
	}

	var p s2Paper
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: parsing Semantic Scholar paper: %v", ErrInvalidResponse, err)
	}
	return &p, nil
}

func (s *SemanticScholar) byTitle(ctx context.Context, title string) (*s2Paper, error) {
	params := url.Values{}
	params.Set("query", title)
	params.Set("fields", semanticScholarFields)

	body, err := s.get(ctx, s.baseURL+"/paper/search/match?"+params.Encode(), s.header())
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []s2Paper `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing Semantic Scholar match: %v", ErrInvalidResponse, err)
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoMatch
	}
	return &resp.Data[0], nil
}

func (s *SemanticScholar) header() http.Header {
	if s.apiKey == "" {
		return nil
	}
	h := http.Header{}
	h.Set("x-api-key", s.apiKey)
	return h
}
