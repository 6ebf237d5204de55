package verify

import (
	"strings"
	"testing"
)

func TestParseVerdict_StrictJSON(t *testing.T) {
	raw := `{"verified": true, "confidence": 0.9, "source_url": "https://arxiv.org/abs/1706.03762", "source_title": "Attention Is All You Need", "authors": "Vaswani, A.", "year": "2017", "supporting_quote": "the Transformer", "explanation": "primary paper"}`
	v, err := ParseVerdict(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !v.Verified || v.Confidence != 0.9 {
		t.Errorf("verdict fields wrong: %+v", v)
	}
	if v.Year.String() != "2017" || v.Authors.String() != "Vaswani, A." {
		t.Errorf("flex fields wrong: year=%q authors=%q", v.Year, v.Authors)
	}
}

func TestParseVerdict_ExtractsFromProse(t *testing.T) {
	raw := "Here is my assessment:\n```json\n" +
		`{"verified": true, "confidence": 0.8, "source_url": "https://example.org/paper", "explanation": "supported"}` +
		"\n```\nLet me know if you need anything else."
	v, err := ParseVerdict(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !v.Verified || v.SourceURL != "https://example.org/paper" {
		t.Errorf("extracted verdict wrong: %+v", v)
	}
}

func TestParseVerdict_FlexibleShapes(t *testing.T) {
	raw := `{"verified": false, "confidence": 0.3, "authors": ["Vaswani, A.", "Shazeer, N."], "year": 2017}`
	v, err := ParseVerdict(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.Year.String() != "2017" {
		t.Errorf("numeric year = %q, want 2017", v.Year)
	}
	if v.Authors.String() != "Vaswani, A.; Shazeer, N." {
		t.Errorf("author list = %q", v.Authors)
	}
}

func TestParseVerdict_NestedBracesInQuote(t *testing.T) {
	raw := `Sure: {"verified": true, "confidence": 0.9, "source_url": "https://x.org", "supporting_quote": "uses {braces} and \"quotes\""} done`
	v, err := ParseVerdict(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(v.SupportingQuote, "{braces}") {
		t.Errorf("quote mangled: %q", v.SupportingQuote)
	}
}

func TestParseVerdict_NoObjectIsError(t *testing.T) {
	if _, err := ParseVerdict("I could not verify this claim."); err == nil {
		t.Error("expected error for reply without JSON")
	}
}
