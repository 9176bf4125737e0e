package bibtex

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const cycleGANBib = `
% exported from somewhere
@article{zhu2017unpaired,
  title={Unpaired Image-to-Image Translation using {C}ycle-{C}onsistent Adversarial Networks},
  author={Zhu, Jun-Yan and Park, Taesung and Isola, Phillip and Efros, Alexei A},
  journal={arXiv preprint arXiv:1703.10593},
  year={2017}
}

@comment{ this { is } ignored }

@InProceedings{He_2016_CVPR,
  author = "He, Kaiming and Zhang, Xiangyu",
  title = "Deep Residual Learning for Image Recognition",
  booktitle = {Proceedings of the IEEE Conference on Computer Vision and Pattern Recognition (CVPR)},
  month = jun,
  year = 2016,
}
`

func TestParse_Basic(t *testing.T) {
	entries, err := Parse(cycleGANBib)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Parse() returned %d entries, want 2", len(entries))
	}

	zhu := entries[0]
	if zhu.EntryType != "article" || zhu.CitationKey != "zhu2017unpaired" {
		t.Errorf("entry 0 = %s/%s", zhu.EntryType, zhu.CitationKey)
	}
	if got := zhu.Get("title"); got != "Unpaired Image-to-Image Translation using {C}ycle-{C}onsistent Adversarial Networks" {
		t.Errorf("title = %q", got)
	}
	if got := zhu.Title(); got != "Unpaired Image-to-Image Translation using Cycle-Consistent Adversarial Networks" {
		t.Errorf("Title() = %q", got)
	}
	if got := zhu.Get("YEAR"); got != "2017" {
		t.Errorf("Get(YEAR) = %q", got)
	}

	he := entries[1]
	if he.EntryType != "inproceedings" {
		t.Errorf("EntryType = %q, want lowercase inproceedings", he.EntryType)
	}
	if got := he.Get("author"); got != "He, Kaiming and Zhang, Xiangyu" {
		t.Errorf("author = %q", got)
	}
	if got := he.Get("month"); got != "jun" {
		t.Errorf("month = %q", got)
	}
	if got := he.Get("year"); got != "2016" {
		t.Errorf("year = %q", got)
	}
}

func TestParse_StringsAndConcatenation(t *testing.T) {
	text := `@string{cvpr = "Computer Vision and Pattern Recognition"}
@inproceedings{key,
  booktitle = "Proceedings of " # cvpr,
  note = {a "quoted" word},
}`
	entries, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Parse() returned %d entries, want 1", len(entries))
	}
	if got := entries[0].Get("booktitle"); got != "Proceedings of Computer Vision and Pattern Recognition" {
		t.Errorf("booktitle = %q", got)
	}
	if got := entries[0].Get("note"); got != `a "quoted" word` {
		t.Errorf("note = %q", got)
	}
}

func TestParse_ParenDelimited(t *testing.T) {
	entries, err := Parse(`@misc(key, title = {Paren (delimited) entry})`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Get("title") != "Paren (delimited) entry" {
		t.Errorf("Parse() = %+v", entries)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unterminated entry", "@article{key,\n  title = {Open"},
		{"missing equals", "@article{key,\n  title {x}\n}"},
		{"unterminated quote", "@article{key, title = \"x}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			var perr ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse() error = %v, want ParseError", err)
			}
			if perr.Line < 1 {
				t.Errorf("Line = %d", perr.Line)
			}
		})
	}
}

func TestParse_EmptyAndFreeText(t *testing.T) {
	entries, err := Parse("no entries here, just an email@example.org")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Parse() = %+v, want none", entries)
	}
}

func TestRoundTrip(t *testing.T) {
	entries, err := Parse(cycleGANBib)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for _, e := range entries {
		again, err := Parse(ToString(e))
		if err != nil {
			t.Fatalf("Parse(ToString()) error = %v", err)
		}
		if len(again) != 1 {
			t.Fatalf("Parse(ToString()) returned %d entries", len(again))
		}
		if !reflect.DeepEqual(again[0], e) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", again[0], e)
		}
	}
}

func TestToString_FieldOrder(t *testing.T) {
	e := Entry{
		EntryType:   "article",
		CitationKey: "k",
		Fields: map[string]string{
			"zeta":   "z",
			"year":   "2020",
			"title":  "T",
			"author": "A",
			"alpha":  "a",
		},
	}
	got := ToString(e)
	want := "@article{k,\n  author = {A},\n  title = {T},\n  year = {2020},\n  alpha = {a},\n  zeta = {z},\n}\n"
	if got != want {
		t.Errorf("ToString() =\n%s\nwant\n%s", got, want)
	}

	if !strings.HasPrefix(ToString(Entry{CitationKey: "x"}), "@misc{x,") {
		t.Errorf("ToString() without type should default to misc")
	}
}
