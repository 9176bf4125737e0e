package source

import (
	"fmt"
	"regexp"
	"strings"
)

// Built-in source names.
const (
	ArXiv      = "arxiv"
	OpenReview = "openreview"
	NeurIPS    = "neurips"
	PMLR       = "pmlr"
	ACL        = "acl"
	CVF        = "cvf"
	BioRxiv    = "biorxiv"
	MedRxiv    = "medrxiv"
	JMLR       = "jmlr"
	PNAS       = "pnas"
	Nature     = "nature"
	ACM        = "acm"
	IEEE       = "ieee"
	Springer   = "springer"
	PLOS       = "plos"
	PMC        = "pmc"
	PubMed     = "pubmed"
	HAL        = "hal"
	SSRN       = "ssrn"
	DOI        = "doi"
)

// Builtin returns the built-in sources in precedence order. The generic DOI
// source comes last so publisher-specific sources win.
func Builtin() []Source {
	return []Source{
		{
			Name:      ArXiv,
			Rules:     []Rule{Substring("arxiv.org/abs/"), Substring("arxiv.org/pdf/")},
			Pattern:   regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/([^?]+)`),
			Versioned: true,
			Landing:   format("https://arxiv.org/abs/%s"),
			Document:  format("https://arxiv.org/pdf/%s"),
		},
		{
			Name:     OpenReview,
			Rules:    []Rule{Substring("openreview.net/forum"), Substring("openreview.net/pdf")},
			Pattern:  regexp.MustCompile(`openreview\.net/(?:forum|pdf)\?(?:.*&)?id=([^&]+)`),
			Landing:  format("https://openreview.net/forum?id=%s"),
			Document: format("https://openreview.net/pdf?id=%s"),
		},
		{
			Name: NeurIPS,
			Rules: []Rule{Predicate(func(u string) bool {
				host := hostOf(u)
				return (host == "papers.nips.cc" || host == "proceedings.neurips.cc") &&
					strings.Contains(u, "/paper")
			})},
			Pattern:  regexp.MustCompile(`/paper(?:_files/paper)?/(\d{4})/(?:hash|file)/([0-9a-f]+)-`),
			Landing:  split2("https://proceedings.neurips.cc/paper/%s/hash/%s-Abstract.html"),
			Document: split2("https://proceedings.neurips.cc/paper/%s/file/%s-Paper.pdf"),
		},
		{
			Name:     PMLR,
			Rules:    []Rule{Substring("proceedings.mlr.press/")},
			Pattern:  regexp.MustCompile(`proceedings\.mlr\.press/(v\d+)/(\w+)`),
			Landing:  split2("https://proceedings.mlr.press/%s/%s.html"),
			Document: pmlrDocument,
		},
		{
			Name:      ACL,
			Rules:     []Rule{Substring("aclanthology.org/"), Substring("aclweb.org/anthology/")},
			Pattern:   regexp.MustCompile(`(?:aclanthology\.org|aclweb\.org/anthology)/([A-Za-z0-9][\w.-]*?)(?:\.pdf)?$`),
			Versioned: true,
			Landing:   format("https://aclanthology.org/%s"),
			Document:  format("https://aclanthology.org/%s.pdf"),
		},
		{
			Name:     CVF,
			Rules:    []Rule{Substring("openaccess.thecvf.com/content")},
			Pattern:  regexp.MustCompile(`openaccess\.thecvf\.com/content[_/](\w+)/(?:html|papers)/(?:[^/]+/)?([\w-]+?)_paper\.(?:html|pdf)`),
			Landing:  cvfURL("html", "html"),
			Document: cvfURL("papers", "pdf"),
		},
		{
			Name:     BioRxiv,
			Rules:    []Rule{Substring("biorxiv.org/content/")},
			Pattern:  regexp.MustCompile(`biorxiv\.org/content/10\.1101/(\d{4}\.\d{2}\.\d{2}\.\d+|\d+)`),
			Landing:  format("https://www.biorxiv.org/content/10.1101/%s"),
			Document: format("https://www.biorxiv.org/content/10.1101/%s.full.pdf"),
		},
		{
			Name:     MedRxiv,
			Rules:    []Rule{Substring("medrxiv.org/content/")},
			Pattern:  regexp.MustCompile(`medrxiv\.org/content/10\.1101/(\d{4}\.\d{2}\.\d{2}\.\d+|\d+)`),
			Landing:  format("https://www.medrxiv.org/content/10.1101/%s"),
			Document: format("https://www.medrxiv.org/content/10.1101/%s.full.pdf"),
		},
		{
			Name:     JMLR,
			Rules:    []Rule{Substring("jmlr.org/papers/")},
			Pattern:  regexp.MustCompile(`jmlr\.org/papers/(?:v|volume)(\d+)/([\w-]+?)(?:\.html|/|\.pdf|$)`),
			Landing:  split2("https://jmlr.org/papers/v%s/%s.html"),
			Document: jmlrDocument,
		},
		{
			Name:     PNAS,
			Rules:    []Rule{Substring("pnas.org/doi/"), Substring("pnas.org/content/")},
			Pattern:  regexp.MustCompile(`pnas\.org/(?:doi|content)/(?:\w+/)?10\.1073/(pnas\.\d+)`),
			Landing:  format("https://www.pnas.org/doi/10.1073/%s"),
			Document: format("https://www.pnas.org/doi/pdf/10.1073/%s"),
		},
		{
			Name:     Nature,
			Rules:    []Rule{Substring("nature.com/articles/")},
			Pattern:  regexp.MustCompile(`nature\.com/articles/([A-Za-z0-9-]+)`),
			Landing:  format("https://www.nature.com/articles/%s"),
			Document: format("https://www.nature.com/articles/%s.pdf"),
		},
		{
			Name:     ACM,
			Rules:    []Rule{Substring("dl.acm.org/doi/")},
			Pattern:  regexp.MustCompile(`dl\.acm\.org/doi/(?:\w+/)?10\.1145/(\d+(?:\.\d+)*)`),
			Landing:  format("https://dl.acm.org/doi/10.1145/%s"),
			Document: format("https://dl.acm.org/doi/pdf/10.1145/%s"),
		},
		{
			Name: IEEE,
			Rules: []Rule{
				Substring("ieeexplore.ieee.org/document/"),
				Substring("ieeexplore.ieee.org/abstract/document/"),
				Substring("ieeexplore.ieee.org/stamp/"),
			},
			Pattern:  regexp.MustCompile(`ieeexplore\.ieee\.org/(?:abstract/)?(?:document/|stamp/stamp\.jsp\?(?:.*&)?arnumber=)(\d+)`),
			Landing:  format("https://ieeexplore.ieee.org/document/%s"),
			Document: format("https://ieeexplore.ieee.org/stamp/stamp.jsp?tp=&arnumber=%s"),
		},
		{
			Name:     Springer,
			Rules:    []Rule{Substring("link.springer.com/article/"), Substring("link.springer.com/content/pdf/")},
			Pattern:  regexp.MustCompile(`link\.springer\.com/(?:article|content/pdf)/10\.1007/([^?]+?)(?:\.pdf)?(?:\?.*)?$`),
			Landing:  format("https://link.springer.com/article/10.1007/%s"),
			Document: format("https://link.springer.com/content/pdf/10.1007/%s.pdf"),
		},
		{
			Name:     PLOS,
			Rules:    []Rule{Substring("journals.plos.org/")},
			Pattern:  regexp.MustCompile(`journals\.plos\.org/(\w+)/article(?:/file)?\?(?:.*&)?id=10\.1371(?:/|%2[fF])(journal\.\w+\.\d+)`),
			Landing:  split2("https://journals.plos.org/%s/article?id=10.1371/%s"),
			Document: split2("https://journals.plos.org/%s/article/file?id=10.1371/%s&type=printable"),
		},
		{
			Name:     PMC,
			Rules:    []Rule{Substring("ncbi.nlm.nih.gov/pmc/articles/"), Substring("pmc.ncbi.nlm.nih.gov/articles/")},
			Pattern:  regexp.MustCompile(`(?:ncbi\.nlm\.nih\.gov/pmc|pmc\.ncbi\.nlm\.nih\.gov)/articles/(PMC\d+)`),
			Landing:  format("https://pmc.ncbi.nlm.nih.gov/articles/%s"),
			Document: format("https://pmc.ncbi.nlm.nih.gov/articles/%s/pdf"),
		},
		{
			Name:    PubMed,
			Rules:   []Rule{Substring("pubmed.ncbi.nlm.nih.gov/")},
			Pattern: regexp.MustCompile(`pubmed\.ncbi\.nlm\.nih\.gov/(\d+)`),
			Landing: format("https://pubmed.ncbi.nlm.nih.gov/%s"),
		},
		{
			Name: HAL,
			Rules: []Rule{Predicate(func(u string) bool {
				host := hostOf(u)
				return host == "hal.science" || strings.HasSuffix(host, ".hal.science") ||
					strings.HasSuffix(host, "archives-ouvertes.fr")
			})},
			Pattern:  regexp.MustCompile(`/((?:hal|tel|inria|cea|inserm)-\d+)(?:v\d+)?(?:/document|/file/[^?]*)?(?:\?.*)?$`),
			Landing:  format("https://hal.science/%s"),
			Document: format("https://hal.science/%s/document"),
		},
		{
			Name:    SSRN,
			Rules:   []Rule{Substring("papers.ssrn.com/"), Substring("ssrn.com/abstract=")},
			Pattern: regexp.MustCompile(`(?:abstract_?id=|abstract=)(\d+)`),
			Landing: format("https://papers.ssrn.com/sol3/papers.cfm?abstract_id=%s"),
		},
		{
			Name:    DOI,
			Rules:   []Rule{Substring("doi.org/10.")},
			Pattern: regexp.MustCompile(`doi\.org/(10\.\d{4,9}/[^?\s]+)`),
			Landing: format("https://doi.org/%s"),
		},
	}
}

// format renders a single-part local id into a URL template.
func format(template string) func(string) string {
	return func(id string) string {
		return fmt.Sprintf(template, id)
	}
}

// split2 renders a two-part local id ("a-b", split at the first "-").
func split2(template string) func(string) string {
	return func(id string) string {
		a, b, ok := strings.Cut(id, "-")
		if !ok {
			return ""
		}
		return fmt.Sprintf(template, a, b)
	}
}

func pmlrDocument(id string) string {
	volume, key, ok := strings.Cut(id, "-")
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://proceedings.mlr.press/%s/%s/%s.pdf", volume, key, key)
}

func jmlrDocument(id string) string {
	volume, key, ok := strings.Cut(id, "-")
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://jmlr.org/papers/volume%s/%s/%s.pdf", volume, key, key)
}

// cvfURL renders CVF open access URLs. Older proceedings live under
// content_<conf>_<year>, newer ones under content/<CONF><YEAR>.
func cvfURL(dir, ext string) func(string) string {
	return func(id string) string {
		conf, key, ok := strings.Cut(id, "-")
		if !ok {
			return ""
		}
		sep := "/"
		if strings.Contains(conf, "_") {
			sep = "_"
		}
		return fmt.Sprintf("https://openaccess.thecvf.com/content%s%s/%s/%s_paper.%s", sep, conf, dir, key, ext)
	}
}
