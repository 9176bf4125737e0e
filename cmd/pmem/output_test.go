package main

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/matsen/papermem/internal/paper"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"ünïcödé title", 8, "ünïcö..."},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" dblp, ,crossref,")
	want := []string{"dblp", "crossref"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitList() = %v, want %v", got, want)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v, want nil", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatRecordHuman(t *testing.T) {
	fav := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	rec := paper.Record{
		ID:           "arxiv-1703.10593",
		Source:       "arxiv",
		Title:        "Unpaired Image-to-Image Translation",
		LandingURL:   "https://arxiv.org/abs/1703.10593",
		DocumentURL:  "https://arxiv.org/pdf/1703.10593",
		Tags:         []string{"gan", "vision"},
		VisitCount:   3,
		AddDate:      time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
		LastOpenDate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		FavoriteDate: &fav,
	}

	out := formatRecordHuman(rec, []string{"/papers/cyclegan.pdf"})
	for _, want := range []string{
		"arxiv-1703.10593",
		"Unpaired Image-to-Image Translation",
		"Tags:     gan, vision",
		"File:     /papers/cyclegan.pdf",
		"Visits:   3",
		"Favorite:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("formatRecordHuman() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatRecordLine_Untitled(t *testing.T) {
	rec := paper.Record{ID: "doi-10.1/x", LandingURL: "https://doi.org/10.1/x", VisitCount: 1}
	line := formatRecordLine(rec)
	if !strings.Contains(line, "https://doi.org/10.1/x") {
		t.Errorf("formatRecordLine() = %q, want landing URL as title", line)
	}
	if strings.HasPrefix(line, "*") {
		t.Errorf("formatRecordLine() = %q, want no favorite marker", line)
	}
}
