package citectx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veridoc/citepipe/internal/model"
)

var testClaims = []model.Claim{
	{ID: "c1", Content: "The Transformer dispenses with recurrence entirely.", Chapter: 1, Section: 2, Importance: model.ImportanceHigh},
	{ID: "c2", Content: "BLEU improved by 2 points.", Chapter: 1, Section: 2, Importance: model.ImportanceMedium},
	{ID: "c3", Content: "A claim from another section.", Chapter: 1, Section: 3, Importance: model.ImportanceHigh},
}

var testCitations = []model.VerifiedCitation{
	{
		ID: "cit_c1", ClaimID: "c1",
		SourceURL:       "https://arxiv.org/abs/1706.03762",
		CitationText:    "Vaswani et al., 2017",
		SupportingQuote: "we propose the Transformer",
		FullReference:   "Vaswani, A. et al. (2017). Attention Is All You Need. https://arxiv.org/abs/1706.03762",
	},
	{
		ID: "cit_c3", ClaimID: "c3",
		SourceURL:     "https://arxiv.org/abs/1706.03762",
		CitationText:  "Vaswani et al., 2017",
		FullReference: "Vaswani, A. et al. (2017). Attention Is All You Need. https://arxiv.org/abs/1706.03762",
	},
}

func TestBuild_FiltersBySectionAndVerification(t *testing.T) {
	ctx := Build(1, 2, testClaims, testCitations)

	// c2 is in the section but unverified; c3 is verified but elsewhere.
	if len(ctx.AllowedClaims) != 1 {
		t.Fatalf("allowed = %d, want 1", len(ctx.AllowedClaims))
	}
	ac := ctx.AllowedClaims[0]
	if ac.ClaimText != testClaims[0].Content || ac.CitationText != "Vaswani et al., 2017" {
		t.Errorf("unexpected allowed claim: %+v", ac)
	}
	if len(ctx.References) != 1 {
		t.Errorf("references = %v, want 1 entry", ctx.References)
	}
}

func TestBuild_EmptySection(t *testing.T) {
	ctx := Build(7, 1, testClaims, testCitations)
	if len(ctx.AllowedClaims) != 0 || len(ctx.References) != 0 {
		t.Fatalf("expected empty context, got %+v", ctx)
	}

	text := FormatInstructions(ctx)
	if !strings.Contains(text, "Avoid factual claims") {
		t.Errorf("empty-section instructions missing restrictive variant:\n%s", text)
	}
	if strings.Contains(text, "ONLY the following") {
		t.Error("empty-section instructions must not enumerate claims")
	}
}

func TestFormatInstructions_EnumeratesEachClaimOnce(t *testing.T) {
	ctx := Build(1, 2, testClaims, testCitations)
	text := FormatInstructions(ctx)

	if got := strings.Count(text, "Vaswani et al., 2017"); got != 2 {
		// Once in the claim line, once in the reference entry.
		t.Errorf("citation text appears %d times:\n%s", got, text)
	}
	if !strings.Contains(text, "Do not introduce factual claims outside this list") {
		t.Error("instructions missing closed-set constraint")
	}
}

func TestBibliography_Dedupes(t *testing.T) {
	refs := Bibliography(testCitations)
	if len(refs) != 1 {
		t.Fatalf("expected 1 deduped reference, got %d: %v", len(refs), refs)
	}
}

func TestWriteBibliographyMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bibliography.md")
	if err := WriteBibliographyMarkdown(path, testCitations); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# References") {
		t.Errorf("missing heading:\n%s", content)
	}
	if strings.Count(content, "Attention Is All You Need") != 1 {
		t.Errorf("expected one deduped entry:\n%s", content)
	}
}
