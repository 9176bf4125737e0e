package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/matsen/papermem/internal/bibtex"
)

// CrossRefBaseURL is the CrossRef REST API base URL.
const CrossRefBaseURL = "https://api.crossref.org"

// crossRefRows is the number of works requested per query.
const crossRefRows = 5

// CrossRef queries the CrossRef works API. It only reports the venue.
type CrossRef struct {
	client
}

// NewCrossRef creates a CrossRef client. Set WithMailto to join the polite pool.
func NewCrossRef(opts ...ClientOption) *CrossRef {
	return &CrossRef{client: newClient(CrossRefName, CrossRefBaseURL, rate.Limit(5), opts)}
}

type crossRefWork struct {
	DOI            string   `json:"DOI"`
	Type           string   `json:"type"`
	Title          []string `json:"title"`
	ContainerTitle []string `json:"container-title"`
}

// Query searches works bibliographically by title and returns the container
// title of the matching published work.
func (c *CrossRef) Query(ctx context.Context, e bibtex.Entry) (*Match, error) {
	title, err := queryTitle(e)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query.bibliographic", title)
	params.Set("rows", fmt.Sprint(crossRefRows))
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	body, err := c.get(ctx, c.baseURL+"/works?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Message struct {
			Items []crossRefWork `json:"items"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing CrossRef works: %v", ErrInvalidResponse, err)
	}

	var venues []string
	for _, w := range resp.Message.Items {
		if w.Type == "posted-content" || len(w.Title) == 0 || len(w.ContainerTitle) == 0 {
			continue
		}
		if !titleMatches(title, w.Title[0]) || isPreprintVenue(w.ContainerTitle[0]) {
			continue
		}
		venues = append(venues, w.ContainerTitle[0])
	}

	venue, err := uniqueVenue(venues)
	if err != nil {
		return nil, err
	}
	return &Match{Venue: venue}, nil
}
