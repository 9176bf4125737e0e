package bibtex

import (
	"testing"

	"github.com/matsen/papermem/internal/paper"
)

func entry(fields map[string]string) Entry {
	return Entry{EntryType: "article", CitationKey: "key", Fields: fields}
}

func TestArXivID(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"eprint with prefix", map[string]string{"eprint": "1703.10593v2", "archiveprefix": "arXiv"}, "1703.10593"},
		{"eprint alone", map[string]string{"eprint": "1703.10593"}, "1703.10593"},
		{"eprint other archive", map[string]string{"eprint": "1703.10593", "archiveprefix": "HAL"}, ""},
		{"arxivid field", map[string]string{"arxivid": "arXiv:2106.15928"}, "2106.15928"},
		{"google scholar journal", map[string]string{"journal": "arXiv preprint arXiv:1703.10593"}, "1703.10593"},
		{"dblp corr", map[string]string{"journal": "CoRR", "volume": "abs/1703.10593"}, "1703.10593"},
		{"url", map[string]string{"url": "https://arxiv.org/abs/1703.10593v3"}, "1703.10593"},
		{"old style", map[string]string{"eprint": "hep-th/9901001"}, "hep-th/9901001"},
		{"published", map[string]string{"journal": "Nature", "doi": "10.1038/nature14539"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArXivID(entry(tt.fields)); got != tt.want {
				t.Errorf("ArXivID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsPreprint(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   bool
	}{
		{"eprint", map[string]string{"eprint": "1703.10593"}, true},
		{"journal arxiv without id", map[string]string{"journal": "ArXiv"}, true},
		{"archiveprefix only", map[string]string{"archiveprefix": "arXiv"}, true},
		{"nature", map[string]string{"journal": "Nature"}, false},
		{"title mentions arxiv", map[string]string{"title": "Why arXiv matters", "journal": "Science"}, false},
		{"empty", map[string]string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPreprint(entry(tt.fields)); got != tt.want {
				t.Errorf("IsPreprint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithVenue(t *testing.T) {
	e := entry(map[string]string{
		"title":         "Unpaired Image-to-Image Translation",
		"author":        "Zhu, Jun-Yan",
		"journal":       "arXiv preprint arXiv:1703.10593",
		"eprint":        "1703.10593",
		"archiveprefix": "arXiv",
		"primaryclass":  "cs.CV",
		"url":           "https://arxiv.org/abs/1703.10593",
		"year":          "2017",
	})

	got := WithVenue(e, "Proceedings of the IEEE International Conference on Computer Vision")
	if got.EntryType != "inproceedings" {
		t.Errorf("EntryType = %q, want inproceedings", got.EntryType)
	}
	if got.Get("booktitle") != "Proceedings of the IEEE International Conference on Computer Vision" {
		t.Errorf("booktitle = %q", got.Get("booktitle"))
	}
	for _, name := range []string{"journal", "eprint", "archiveprefix", "primaryclass", "url"} {
		if _, ok := got.Fields[name]; ok {
			t.Errorf("field %s should have been stripped", name)
		}
	}
	if got.Get("title") != e.Get("title") || got.Get("year") != "2017" || got.CitationKey != "key" {
		t.Errorf("kept fields changed: %+v", got)
	}
	if e.Get("eprint") == "" {
		t.Error("WithVenue() mutated its input")
	}

	journal := WithVenue(e, "Nature Machine Intelligence")
	if journal.EntryType != "article" || journal.Get("journal") != "Nature Machine Intelligence" {
		t.Errorf("WithVenue(journal) = %+v", journal)
	}
}

func TestEntryTypeForVenue(t *testing.T) {
	tests := []struct {
		venue string
		want  string
	}{
		{"Nature", "article"},
		{"Proceedings of ICML 2020", "inproceedings"},
		{"International Conference on Learning Representations", "inproceedings"},
		{"NeurIPS", "inproceedings"},
		{"Journal of Machine Learning Research", "article"},
	}

	for _, tt := range tests {
		if got := EntryTypeForVenue(tt.venue); got != tt.want {
			t.Errorf("EntryTypeForVenue(%q) = %q, want %q", tt.venue, got, tt.want)
		}
	}
}

func TestFromRecord(t *testing.T) {
	r := paper.Record{
		Title:      "Unpaired Image-to-Image Translation & More",
		Author:     "Jun-Yan Zhu and Taesung Park",
		Year:       "2017",
		LandingURL: "https://arxiv.org/abs/1703.10593",
	}

	e := FromRecord(r)
	if e.CitationKey != "Zhu2017-ui" {
		t.Errorf("CitationKey = %q, want Zhu2017-ui", e.CitationKey)
	}
	if e.Get("title") != `Unpaired Image-to-Image Translation \& More` {
		t.Errorf("title = %q", e.Get("title"))
	}
	if e.Get("url") != r.LandingURL {
		t.Errorf("url = %q", e.Get("url"))
	}

	r.BibTeX = "@inproceedings{zhu2017, title={CycleGAN}}"
	if got := FromRecord(r); got.CitationKey != "zhu2017" || got.EntryType != "inproceedings" {
		t.Errorf("FromRecord(with bibtex) = %+v", got)
	}
}

func TestCiteKey(t *testing.T) {
	tests := []struct {
		author, year, title, want string
	}{
		{"Zhu, Jun-Yan and Park, Taesung", "2017", "Unpaired Translation", "Zhu2017-ut"},
		{"", "", "A", "Unknown9999-xx"},
		{"Kaiming He", "2016", "Deep Residual Learning", "He2016-dr"},
	}

	for _, tt := range tests {
		if got := CiteKey(tt.author, tt.year, tt.title); got != tt.want {
			t.Errorf("CiteKey(%q, %q, %q) = %q, want %q", tt.author, tt.year, tt.title, got, tt.want)
		}
	}
}
