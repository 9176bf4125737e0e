package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/matsen/papermem/internal/bibtex"
)

// ScholarBaseURL is the Google Scholar base URL.
const ScholarBaseURL = "https://scholar.google.com"

// scholarTagPrefix matches result-type tags such as "[PDF]" or "[HTML][HTML]".
var scholarTagPrefix = regexp.MustCompile(`^\s*(?:\[[A-Z]+\]\s*)+`)

// Scholar scrapes Google Scholar result pages. Scholar has no API; a query
// costs three requests (search, cite popup, BibTeX export).
type Scholar struct {
	client
}

// NewScholar creates a Google Scholar client.
func NewScholar(opts ...ClientOption) *Scholar {
	return &Scholar{client: newClient(ScholarName, ScholarBaseURL, rate.Every(2*time.Second), opts)}
}

type scholarResult struct {
	cid   string
	title string
}

// Query searches Scholar by title, opens the cite popup of the single
// matching result, and follows its BibTeX link.
func (s *Scholar) Query(ctx context.Context, e bibtex.Entry) (*Match, error) {
	title, err := queryTitle(e)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", title)
	params.Set("hl", "en")
	searchURL := s.baseURL + "/scholar?" + params.Encode()

	page, err := s.page(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	var cid string
	for _, r := range scholarResults(page) {
		if !titleMatches(title, r.title) {
			continue
		}
		if cid != "" && cid != r.cid {
			return nil, fmt.Errorf("%w: Google Scholar results %s and %s", ErrAmbiguous, cid, r.cid)
		}
		cid = r.cid
	}
	if cid == "" {
		return nil, ErrNoMatch
	}

	params = url.Values{}
	params.Set("q", "info:"+cid+":scholar.google.com/")
	params.Set("output", "cite")
	params.Set("scirp", "0")
	params.Set("hl", "en")
	citeURL := s.baseURL + "/scholar?" + params.Encode()

	popup, err := s.page(ctx, citeURL)
	if err != nil {
		return nil, err
	}
	href := scholarBibTeXLink(popup)
	if href == "" {
		return nil, fmt.Errorf("%w: no BibTeX link in Google Scholar cite popup", ErrInvalidResponse)
	}
	bibURL, err := resolveLink(citeURL, href)
	if err != nil {
		return nil, err
	}

	bib, err := s.get(ctx, bibURL, nil)
	if err != nil {
		return nil, err
	}
	text, entry, err := publishedBibTeX(s.name, string(bib))
	if err != nil {
		return nil, err
	}
	return &Match{BibTeX: text, Venue: bibtex.Venue(entry)}, nil
}

// page fetches and parses an HTML page, detecting Scholar's bot check.
func (s *Scholar) page(ctx context.Context, rawURL string) (*html.Node, error) {
	body, err := s.get(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if bytes.Contains(body, []byte("gs_captcha")) || bytes.Contains(body, []byte("captcha-form")) {
		return nil, fmt.Errorf("%w: Google Scholar captcha", ErrRateLimited)
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing Google Scholar page: %v", ErrInvalidResponse, err)
	}
	return doc, nil
}

// scholarResults extracts the cluster id and title of each search result.
func scholarResults(doc *html.Node) []scholarResult {
	var results []scholarResult
	for _, n := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "div" && hasClass(n, "gs_r") && attr(n, "data-cid") != ""
	}) {
		heads := findAll(n, func(n *html.Node) bool { return n.Data == "h3" && hasClass(n, "gs_rt") })
		if len(heads) == 0 {
			continue
		}
		title := scholarTagPrefix.ReplaceAllString(textContent(heads[0]), "")
		results = append(results, scholarResult{cid: attr(n, "data-cid"), title: strings.TrimSpace(title)})
	}
	return results
}

// scholarBibTeXLink returns the href of the cite popup's BibTeX export link.
func scholarBibTeXLink(doc *html.Node) string {
	for _, a := range findAll(doc, func(n *html.Node) bool { return n.Data == "a" && hasClass(n, "gs_citi") }) {
		if strings.EqualFold(strings.TrimSpace(textContent(a)), "bibtex") {
			return attr(a, "href")
		}
	}
	return ""
}

func resolveLink(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: bad link %q: %v", ErrInvalidResponse, href, err)
	}
	return b.ResolveReference(h).String(), nil
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
