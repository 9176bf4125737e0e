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

// DBLPBaseURL is the DBLP base URL for both search and record export.
const DBLPBaseURL = "https://dblp.org"

// dblpSearchHits is the number of search hits requested per query.
const dblpSearchHits = 10

// DBLP queries the DBLP computer science bibliography.
type DBLP struct {
	client
}

// NewDBLP creates a DBLP client.
func NewDBLP(opts ...ClientOption) *DBLP {
	return &DBLP{client: newClient(DBLPName, DBLPBaseURL, rate.Limit(1), opts)}
}

type dblpSearchResponse struct {
	Result struct {
		Hits struct {
			Hit []dblpHit `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpHit struct {
	Info struct {
		Title flexString `json:"title"`
		Venue flexString `json:"venue"`
		Type  string     `json:"type"`
		Key   string     `json:"key"`
		Year  string     `json:"year"`
	} `json:"info"`
}

// flexString decodes a JSON string or the first element of a string array.
// DBLP uses either form depending on the number of values.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if len(list) > 0 {
		*f = flexString(list[0])
	}
	return nil
}

// Query searches DBLP by title and returns the BibTeX of the single
// published (non-CoRR) record with that title.
func (d *DBLP) Query(ctx context.Context, e bibtex.Entry) (*Match, error) {
	title, err := queryTitle(e)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", title)
	params.Set("format", "json")
	params.Set("h", fmt.Sprint(dblpSearchHits))

	body, err := d.get(ctx, d.baseURL+"/search/publ/api?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp dblpSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing DBLP search results: %v", ErrInvalidResponse, err)
	}

	var key string
	for _, hit := range resp.Result.Hits.Hit {
		info := hit.Info
		if info.Key == "" || strings.HasPrefix(info.Type, "Informal") || isPreprintVenue(string(info.Venue)) {
			continue
		}
		if !titleMatches(title, string(info.Title)) {
			continue
		}
		if key != "" && key != info.Key {
			return nil, fmt.Errorf("%w: DBLP records %s and %s", ErrAmbiguous, key, info.Key)
		}
		key = info.Key
	}
	if key == "" {
		return nil, ErrNoMatch
	}

	bib, err := d.get(ctx, d.baseURL+"/rec/"+key+".bib", nil)
	if err != nil {
		return nil, err
	}
	text, entry, err := publishedBibTeX(d.name, string(bib))
	if err != nil {
		return nil, err
	}
	return &Match{BibTeX: text, Venue: bibtex.Venue(entry)}, nil
}
