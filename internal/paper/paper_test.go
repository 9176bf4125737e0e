package paper

import (
	"reflect"
	"testing"
	"time"
)

func TestIDSplit(t *testing.T) {
	tests := []struct {
		id         ID
		wantPrefix string
		wantLocal  string
		wantOK     bool
	}{
		{"arxiv-1703.10593", "arxiv", "1703.10593", true},
		{"pmlr-v119-chen20j", "pmlr", "v119-chen20j", true},
		{"doi-10.1145/3366423.3380188", "doi", "10.1145/3366423.3380188", true},
		{"noprefix", "", "", false},
		{"-1234", "", "", false},
		{"arxiv-", "", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			prefix, local, ok := tt.id.Split()
			if ok != tt.wantOK || prefix != tt.wantPrefix || local != tt.wantLocal {
				t.Errorf("Split() = (%q, %q, %v), want (%q, %q, %v)",
					prefix, local, ok, tt.wantPrefix, tt.wantLocal, tt.wantOK)
			}
		})
	}
}

func TestNewID(t *testing.T) {
	if got := NewID("arxiv", "1703.10593"); got != "arxiv-1703.10593" {
		t.Errorf("NewID() = %q, want %q", got, "arxiv-1703.10593")
	}
}

func TestUnionTags(t *testing.T) {
	got := UnionTags([]string{"gan", "vision", " "}, []string{"vision", "cycle"})
	want := []string{"cycle", "gan", "vision"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UnionTags() = %v, want %v", got, want)
	}

	if got := UnionTags(nil, nil); got != nil {
		t.Errorf("UnionTags(nil, nil) = %v, want nil", got)
	}
}

func TestRecordClone(t *testing.T) {
	fav := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Record{
		ID:           "arxiv-1703.10593",
		Tags:         []string{"gan"},
		Aliases:      []string{"https://example.org/a"},
		FavoriteDate: &fav,
	}

	c := r.Clone()
	c.Tags[0] = "changed"
	c.Aliases[0] = "changed"
	*c.FavoriteDate = time.Time{}

	if r.Tags[0] != "gan" {
		t.Errorf("Clone() shares Tags with the original")
	}
	if r.Aliases[0] != "https://example.org/a" {
		t.Errorf("Clone() shares Aliases with the original")
	}
	if !r.FavoriteDate.Equal(fav) {
		t.Errorf("Clone() shares FavoriteDate with the original")
	}
	if !r.IsFavorite() {
		t.Errorf("IsFavorite() = false, want true")
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"lowercase", "Unpaired Image-to-Image Translation", "unpaired image to image translation"},
		{"punctuation", "Attention: Is All You Need?!", "attention is all you need"},
		{"diacritics", "Étude des Réseaux", "etude des reseaux"},
		{"whitespace", "  Deep   Residual\tLearning ", "deep residual learning"},
		{"empty", "", ""},
		{"only punctuation", "...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.title); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
