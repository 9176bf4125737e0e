package pdf

import (
	"os"
	"path/filepath"
	"testing"
)

const arxivFirstPage = `arXiv:1703.10593v7  [cs.CV]  24 Aug 2020
Unpaired Image-to-Image Translation
using Cycle-Consistent Adversarial Networks
Jun-Yan Zhu Taesung Park Phillip Isola Alexei A. Efros
`

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "doi: 10.1038/nature14539", "10.1038/nature14539"},
		{"trailing punctuation", "See https://doi.org/10.1145/3366423.3380188.", "10.1145/3366423.3380188"},
		{"first valid wins", "10.1/x then 10.1073/pnas.1910837117", "10.1073/pnas.1910837117"},
		{"none", "no identifiers here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindDOI(tt.text); got != tt.want {
				t.Errorf("FindDOI() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindArXivID(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{arxivFirstPage, "1703.10593"},
		{"arXiv: 2106.15928", "2106.15928"},
		{"arXiv:hep-th/9901001v2", "hep-th/9901001"},
		{"published in Nature", ""},
	}

	for _, tt := range tests {
		if got := FindArXivID(tt.text); got != tt.want {
			t.Errorf("FindArXivID(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestGuessTitle(t *testing.T) {
	if got := GuessTitle(arxivFirstPage); got != "Unpaired Image-to-Image Translation" {
		t.Errorf("GuessTitle() = %q", got)
	}

	text := "Journal of Machine Learning Research 21 (2020)\nshort\nA Simple Framework for Contrastive Learning\n"
	if got := GuessTitle(text); got != "A Simple Framework for Contrastive Learning" {
		t.Errorf("GuessTitle() = %q, want header skipped", got)
	}
}

func TestIdentifyText(t *testing.T) {
	id := IdentifyText(arxivFirstPage + "\nhttps://doi.org/10.1109/ICCV.2017.244\n")

	if id.ArXivID != "1703.10593" || id.DOI != "10.1109/ICCV.2017.244" {
		t.Errorf("IdentifyText() = %+v", id)
	}
	if got := id.URL(); got != "https://arxiv.org/abs/1703.10593" {
		t.Errorf("URL() = %q, want arXiv preferred", got)
	}

	if got := (Identity{DOI: "10.1038/nature14539"}).URL(); got != "https://doi.org/10.1038/nature14539" {
		t.Errorf("URL() = %q", got)
	}
	if got := (Identity{Title: "only a title"}).URL(); got != "" {
		t.Errorf("URL() = %q, want empty", got)
	}
}

func TestIdentify_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Identify(path); err == nil {
		t.Error("Identify() error = nil for a non-PDF file")
	}
}
