package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/matsen/papermem/internal/paper"
)

func TestClassify(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name       string
		url        string
		wantSource string
		wantLocal  string
	}{
		{"arxiv pdf versioned", "https://arxiv.org/pdf/1703.10593v7.pdf", ArXiv, "1703.10593"},
		{"arxiv abs", "https://arxiv.org/abs/1703.10593", ArXiv, "1703.10593"},
		{"arxiv http trailing slash", "http://arxiv.org/abs/1703.10593v2/", ArXiv, "1703.10593"},
		{"arxiv old style", "https://arxiv.org/abs/hep-th/9901001v1", ArXiv, "hep-th/9901001"},
		{"arxiv fragment", "https://arxiv.org/abs/1703.10593#comments", ArXiv, "1703.10593"},
		{"openreview forum", "https://openreview.net/forum?id=rJl-b3RcF7", OpenReview, "rJl-b3RcF7"},
		{"openreview pdf", "https://openreview.net/pdf?id=rJl-b3RcF7", OpenReview, "rJl-b3RcF7"},
		{"neurips abstract", "https://proceedings.neurips.cc/paper/2020/hash/1457c0d6bfcb4967418bfb8ac142f64a-Abstract.html", NeurIPS, "2020-1457c0d6bfcb4967418bfb8ac142f64a"},
		{"neurips pdf", "https://papers.nips.cc/paper/2020/file/1457c0d6bfcb4967418bfb8ac142f64a-Paper.pdf", NeurIPS, "2020-1457c0d6bfcb4967418bfb8ac142f64a"},
		{"pmlr html", "https://proceedings.mlr.press/v119/chen20j.html", PMLR, "v119-chen20j"},
		{"pmlr pdf", "http://proceedings.mlr.press/v119/chen20j/chen20j.pdf", PMLR, "v119-chen20j"},
		{"acl landing", "https://aclanthology.org/2020.acl-main.1/", ACL, "2020.acl-main.1"},
		{"acl pdf versioned", "https://aclanthology.org/2020.acl-main.1v2.pdf", ACL, "2020.acl-main.1"},
		{"cvf html", "https://openaccess.thecvf.com/content_iccv_2017/html/Zhu_Unpaired_Image-To-Image_Translation_ICCV_2017_paper.html", CVF, "iccv_2017-Zhu_Unpaired_Image-To-Image_Translation_ICCV_2017"},
		{"cvf pdf new layout", "https://openaccess.thecvf.com/content/CVPR2021/papers/Chen_Exploring_Simple_CVPR_2021_paper.pdf", CVF, "CVPR2021-Chen_Exploring_Simple_CVPR_2021"},
		{"biorxiv full pdf", "https://www.biorxiv.org/content/10.1101/2020.03.01.972935v1.full.pdf", BioRxiv, "2020.03.01.972935"},
		{"medrxiv landing", "https://www.medrxiv.org/content/10.1101/2020.04.14.20062463v2", MedRxiv, "2020.04.14.20062463"},
		{"jmlr landing", "https://jmlr.org/papers/v21/19-123.html", JMLR, "21-19-123"},
		{"jmlr pdf", "https://jmlr.org/papers/volume21/19-123/19-123.pdf", JMLR, "21-19-123"},
		{"pnas pdf", "https://www.pnas.org/doi/pdf/10.1073/pnas.1910837117", PNAS, "pnas.1910837117"},
		{"nature pdf", "https://www.nature.com/articles/s41586-020-2649-2.pdf", Nature, "s41586-020-2649-2"},
		{"acm abs", "https://dl.acm.org/doi/abs/10.1145/3366423.3380188", ACM, "3366423.3380188"},
		{"ieee stamp", "https://ieeexplore.ieee.org/stamp/stamp.jsp?tp=&arnumber=9157772", IEEE, "9157772"},
		{"springer pdf", "https://link.springer.com/content/pdf/10.1007/s10994-021-05946-3.pdf", Springer, "s10994-021-05946-3"},
		{"plos", "https://journals.plos.org/plosone/article?id=10.1371/journal.pone.0123456", PLOS, "plosone-journal.pone.0123456"},
		{"pmc", "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC1234567/", PMC, "PMC1234567"},
		{"pubmed", "https://pubmed.ncbi.nlm.nih.gov/19872477/", PubMed, "19872477"},
		{"hal document", "https://hal.science/hal-01234567v2/document", HAL, "hal-01234567"},
		{"ssrn", "https://papers.ssrn.com/sol3/papers.cfm?abstract_id=3456789", SSRN, "3456789"},
		{"doi", "https://doi.org/10.1038/nature14539", DOI, "10.1038/nature14539"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.Classify(tt.url)
			if got.Source != tt.wantSource || got.LocalID != tt.wantLocal {
				t.Errorf("Classify(%q) = %+v, want {%s %s}", tt.url, got, tt.wantSource, tt.wantLocal)
			}
		})
	}
}

func TestClassify_ArXivScenario(t *testing.T) {
	reg := DefaultRegistry()

	c := reg.Classify("https://arxiv.org/pdf/1703.10593v7.pdf")
	if c.Source != "arxiv" {
		t.Errorf("Source = %q, want arxiv", c.Source)
	}
	if c.ID() != "arxiv-1703.10593" {
		t.Errorf("ID() = %q, want arxiv-1703.10593", c.ID())
	}

	landing := reg.ToLandingPage(c.Source, "https://arxiv.org/pdf/1703.10593v7.pdf")
	if landing != "https://arxiv.org/abs/1703.10593" {
		t.Errorf("ToLandingPage() = %q, want https://arxiv.org/abs/1703.10593", landing)
	}
}

func TestClassify_VersionsShareLocalID(t *testing.T) {
	reg := DefaultRegistry()

	pairs := [][2]string{
		{"https://arxiv.org/pdf/1703.10593v1.pdf", "https://arxiv.org/pdf/1703.10593v7.pdf"},
		{"https://arxiv.org/abs/2106.15928v3", "https://arxiv.org/abs/2106.15928"},
		{"https://www.biorxiv.org/content/10.1101/2020.03.01.972935v1", "https://www.biorxiv.org/content/10.1101/2020.03.01.972935v4.full.pdf"},
		{"https://aclanthology.org/2020.acl-main.1v1.pdf", "https://aclanthology.org/2020.acl-main.1v2.pdf"},
		{"https://hal.science/hal-01234567v1", "https://hal.science/hal-01234567v3/document"},
	}

	for _, p := range pairs {
		a, b := reg.Classify(p[0]), reg.Classify(p[1])
		if !a.IsPaper() || a != b {
			t.Errorf("Classify(%q) = %+v, Classify(%q) = %+v, want equal papers", p[0], a, p[1], b)
		}
	}
}

func TestClassify_NotAPaper(t *testing.T) {
	reg := DefaultRegistry()

	urls := []string{
		"",
		"   ",
		"https://www.google.com/search?q=cyclegan",
		"https://arxiv.org/list/cs.CV/recent",
		"https://aclanthology.org/events/acl-2020/",
		"not a url at all",
		"https://openreview.net/group?id=ICLR.cc/2019/Conference",
		"::::",
	}

	for _, u := range urls {
		if got := reg.Classify(u); got != NotAPaper || got.IsPaper() {
			t.Errorf("Classify(%q) = %+v, want NotAPaper", u, got)
		}
		if got := reg.Classify(u).ID(); got != "" {
			t.Errorf("Classify(%q).ID() = %q, want empty", u, got)
		}
	}
}

func TestClassify_LocalFileTable(t *testing.T) {
	reg := DefaultRegistry()
	path := filepath.Join(t.TempDir(), "cyclegan.pdf")

	if got := reg.Classify(path); got.IsPaper() {
		t.Fatalf("Classify(unrecorded file) = %+v, want NotAPaper", got)
	}

	reg.RecordLocalFile(path, "arxiv-1703.10593")

	for _, ref := range []string{path, FileURL(path)} {
		got := reg.Classify(ref)
		want := Classification{Source: ArXiv, LocalID: "1703.10593"}
		if got != want {
			t.Errorf("Classify(%q) = %+v, want %+v", ref, got, want)
		}
	}

	reg.ForgetPaperFiles("arxiv-1703.10593")
	if got := reg.Classify(path); got.IsPaper() {
		t.Errorf("Classify() after ForgetPaperFiles = %+v, want NotAPaper", got)
	}
}

func TestClassify_RegistrationOrderWins(t *testing.T) {
	first := Source{
		Name:    "first",
		Rules:   []Rule{Substring("example.org/papers/")},
		Pattern: regexp.MustCompile(`example\.org/papers/(\d+)`),
	}
	second := Source{
		Name:    "second",
		Rules:   []Rule{Predicate(func(u string) bool { return hostOf(u) == "example.org" })},
		Pattern: regexp.MustCompile(`example\.org/\w+/(\d+)`),
	}

	reg, err := NewRegistry(first, second)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if got := reg.Classify("https://example.org/papers/42"); got.Source != "first" {
		t.Errorf("Source = %q, want first", got.Source)
	}
	if got := reg.Classify("https://example.org/other/42"); got.Source != "second" {
		t.Errorf("Source = %q, want second", got.Source)
	}
}

func TestRegister_Errors(t *testing.T) {
	valid := Source{
		Name:    "ok",
		Rules:   []Rule{Substring("ok.org/")},
		Pattern: regexp.MustCompile(`ok\.org/(\d+)`),
	}

	tests := []struct {
		name    string
		sources []Source
		wantErr error
	}{
		{"duplicate", []Source{valid, valid}, ErrDuplicateSource},
		{"dash in name", []Source{{Name: "a-b", Rules: valid.Rules, Pattern: valid.Pattern}}, ErrInvalidSource},
		{"no pattern", []Source{{Name: "x", Rules: valid.Rules}}, ErrInvalidSource},
		{"no capture group", []Source{{Name: "x", Rules: valid.Rules, Pattern: regexp.MustCompile(`ok`)}}, ErrInvalidSource},
		{"no rules", []Source{{Name: "x", Pattern: valid.Pattern}}, ErrInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.sources...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewRegistry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegister_ConcurrentWithClassify(t *testing.T) {
	reg := DefaultRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("extra%d", i)
			err := reg.Register(Source{
				Name:    name,
				Rules:   []Rule{Substring(name + ".org/")},
				Pattern: regexp.MustCompile(regexp.QuoteMeta(name) + `\.org/(\d+)`),
			})
			if err != nil {
				t.Errorf("Register(%s) error = %v", name, err)
			}
		}(i)
		go func() {
			defer wg.Done()
			if got := reg.Classify("https://arxiv.org/abs/1703.10593").ID(); got != "arxiv-1703.10593" {
				t.Errorf("Classify() = %q", got)
			}
			reg.Canonicalize("https://openreview.net/forum?id=rJl-b3RcF7")
			reg.Names()
		}()
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		url := fmt.Sprintf("https://extra%d.org/42", i)
		if got := reg.Classify(url).ID(); got != paper.ID(fmt.Sprintf("extra%d-42", i)) {
			t.Errorf("Classify(%s) = %q", url, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/1703.10593/", "https://arxiv.org/abs/1703.10593"},
		{"HTTPS://ArXiv.org/abs/1703.10593", "https://arxiv.org/abs/1703.10593"},
		{"  https://arxiv.org/abs/1703.10593#x  ", "https://arxiv.org/abs/1703.10593"},
		{"https://openreview.net/forum/?id=abc", "https://openreview.net/forum?id=abc"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestURLs(t *testing.T) {
	reg := DefaultRegistry()

	landing, document, ok := reg.URLs(paper.ID("arxiv-1703.10593"))
	if !ok {
		t.Fatal("URLs() ok = false")
	}
	if landing != "https://arxiv.org/abs/1703.10593" || document != "https://arxiv.org/pdf/1703.10593" {
		t.Errorf("URLs() = (%q, %q)", landing, document)
	}

	if _, _, ok := reg.URLs("nosuch-123"); ok {
		t.Error("URLs(unknown source) ok = true")
	}
}
