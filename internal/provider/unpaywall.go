package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/matsen/papermem/internal/bibtex"
)

// UnpaywallBaseURL is the Unpaywall API base URL.
const UnpaywallBaseURL = "https://api.unpaywall.org"

// arxivDOIPrefix is the DOI prefix arXiv registers for its own preprints.
const arxivDOIPrefix = "10.48550/"

// Unpaywall queries the Unpaywall API. It only reports the venue and
// requires a contact email.
type Unpaywall struct {
	client
}

// NewUnpaywall creates an Unpaywall client.
func NewUnpaywall(opts ...ClientOption) *Unpaywall {
	return &Unpaywall{client: newClient(UnpaywallName, UnpaywallBaseURL, rate.Limit(5), opts)}
}

type unpaywallWork struct {
	DOI         string `json:"doi"`
	Title       string `json:"title"`
	JournalName string `json:"journal_name"`
	Genre       string `json:"genre"`
}

// Query looks up the entry's DOI when it has a non-arXiv one, otherwise
// searches by title.
func (u *Unpaywall) Query(ctx context.Context, e bibtex.Entry) (*Match, error) {
	if u.mailto == "" {
		return nil, fmt.Errorf("%w: Unpaywall requires a contact email", ErrNotConfigured)
	}
	title, err := queryTitle(e)
	if err != nil {
		return nil, err
	}

	var works []unpaywallWork
	if doi := strings.TrimSpace(e.Get("doi")); doi != "" && !strings.HasPrefix(strings.ToLower(doi), arxivDOIPrefix) {
		w, err := u.byDOI(ctx, doi)
		if err != nil {
			if IsNotFound(err) {
				return nil, fmt.Errorf("%w: %v", ErrNoMatch, err)
			}
			return nil, err
		}
		works = []unpaywallWork{*w}
	} else {
		works, err = u.search(ctx, title)
		if err != nil {
			return nil, err
		}
	}

	var venues []string
	for _, w := range works {
		if w.Genre == "posted-content" || !titleMatches(title, w.Title) || isPreprintVenue(w.JournalName) {
			continue
		}
		venues = append(venues, w.JournalName)
	}

	venue, err := uniqueVenue(venues)
	if err != nil {
		return nil, err
	}
	return &Match{Venue: venue}, nil
}

func (u *Unpaywall) byDOI(ctx context.Context, doi string) (*unpaywallWork, error) {
	params := url.Values{}
	params.Set("email", u.mailto)

	body, err := u.get(ctx, u.baseURL+"/v2/"+doi+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var w unpaywallWork
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: parsing Unpaywall record: %v", ErrInvalidResponse, err)
	}
	return &w, nil
}

func (u *Unpaywall) search(ctx context.Context, title string) ([]unpaywallWork, error) {
	params := url.Values{}
	params.Set("query", title)
	params.Set("email", u.mailto)

	body, err := u.get(ctx, u.baseURL+"/v2/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []struct {
			Response unpaywallWork `json:"response"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing Unpaywall search: %v", ErrInvalidResponse, err)
	}

	works := make([]unpaywallWork, 0, len(resp.Results))
	for _, r := range resp.Results {
		works = append(works, r.Response)
	}
	return works, nil
}
