// Package pdf reads identifying metadata out of local PDF files and opens
// papers in the user's viewer.
package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxScanPages bounds how many leading pages are searched for identifiers.
const maxScanPages = 3

var (
	// 10.XXXX/... where XXXX is 4 to 9 digits
	doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

	// arXiv stamps their PDFs with "arXiv:1703.10593v7 [cs.CV] 24 Aug 2020".
	arxivPattern = regexp.MustCompile(`arXiv:\s*(\d{4}\.\d{4,5}|[a-z-]+(?:\.[A-Z]{2})?/\d{7})(?:v\d+)?`)
)

// Identity is what could be read from a PDF. Any field may be empty.
type Identity struct {
	DOI     string `json:"doi,omitempty"`
	ArXivID string `json:"arxiv_id,omitempty"`
	Title   string `json:"title,omitempty"`
}

// URL returns the paper URL the identity points at, preferring arXiv.
func (id Identity) URL() string {
	switch {
	case id.ArXivID != "":
		return "https://arxiv.org/abs/" + id.ArXivID
	case id.DOI != "":
		return "https://doi.org/" + id.DOI
	default:
		return ""
	}
}

// Identify extracts a DOI, an arXiv id and a title guess from the first pages
// of a PDF.
func Identify(filePath string) (Identity, error) {
	text, err := ExtractText(filePath, maxScanPages)
	if err != nil {
		return Identity{}, err
	}
	return IdentifyText(text), nil
}

// IdentifyText is Identify over already extracted text.
func IdentifyText(text string) Identity {
	return Identity{
		DOI:     FindDOI(text),
		ArXivID: FindArXivID(text),
		Title:   GuessTitle(text),
	}
}

// ExtractText extracts the text of the first maxPages pages of a PDF.
// A non-positive maxPages reads every page.
func ExtractText(filePath string, maxPages int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// FindDOI returns the first plausible DOI in text.
func FindDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// FindArXivID returns the unversioned arXiv id stamped in text.
func FindArXivID(text string) string {
	m := arxivPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// GuessTitle returns the first substantial line that does not look like a
// running header.
func GuessTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slash := strings.Index(doi, "/")
	return slash != -1 && slash < len(doi)-1
}

// isHeaderLine checks if a line is likely a header or footer.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "arxiv:"):
		return true
	case strings.Contains(lower, "journal"):
		return true
	case strings.Contains(lower, "volume") && strings.Contains(lower, "issue"):
		return true
	case strings.Contains(lower, "copyright"), strings.Contains(lower, "preprint"):
		return true
	case strings.Contains(lower, "proceedings"), strings.Contains(lower, "conference"):
		return true
	}
	return false
}
