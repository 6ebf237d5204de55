package dedup

import (
	"testing"

	"github.com/veridoc/citepipe/internal/model"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.COM/Papers/", "https://example.com/papers"},
		{"https://example.com/papers", "https://example.com/papers"},
		{"https://example.com/papers#section-2", "https://example.com/papers"},
		{"  https://example.com/  ", "https://example.com"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSourceID_StableUnderNormalization(t *testing.T) {
	a := SourceID("https://Example.com/paper/")
	b := SourceID("https://example.com/paper")
	if a != b {
		t.Errorf("expected identical ids, got %q and %q", a, b)
	}

	c := SourceID("https://example.com/other")
	if a == c {
		t.Error("different URLs must not collide")
	}
}

func TestDeduper_FoldsDuplicates(t *testing.T) {
	d := NewDeduper()

	id1 := d.Add(model.Source{URL: "https://arxiv.org/abs/1706.03762", Type: model.SourceTypePaper})
	id2 := d.Add(model.Source{
		URL:     "https://ARXIV.org/abs/1706.03762/",
		Title:   "Attention Is All You Need",
		Authors: "Vaswani, A.",
		Year:    "2017",
	})

	if id1 != id2 {
		t.Fatalf("expected same id for duplicate discovery, got %q and %q", id1, id2)
	}
	if d.Len() != 1 {
		t.Fatalf("expected 1 unique source, got %d", d.Len())
	}

	src := d.Sources()[0]
	if src.Title != "Attention Is All You Need" {
		t.Errorf("expected empty title filled from later discovery, got %q", src.Title)
	}
	if src.Type != model.SourceTypePaper {
		t.Errorf("expected first record's type kept, got %q", src.Type)
	}
}

func TestDeduper_AddHit(t *testing.T) {
	d := NewDeduper()
	d.AddHit(model.SearchHit{
		URL:   "https://example.com/doc",
		Title: "Doc",
		Date:  "2021-03-01",
	}, model.SourceTypeWebsite)

	src := d.Sources()[0]
	if src.Year != "2021" {
		t.Errorf("expected year 2021 from date, got %q", src.Year)
	}
	if src.ID == "" {
		t.Error("expected id assigned")
	}
}
