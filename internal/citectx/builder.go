// Package citectx derives per-section citation contexts: the closed set
// of claims a downstream writer may state, each bound to its verified
// citation. Contexts are computed on demand from claims and citations,
// never stored.
package citectx

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/veridoc/citepipe/internal/model"
)

// Build assembles the context for one chapter/section. Only claims that
// belong to the section and hold a verified citation are allowed;
// everything else is absent, which for the writer means forbidden.
func Build(chapter, section int, claims []model.Claim, citations []model.VerifiedCitation) model.CitationContext {
	byClaim := make(map[string]model.VerifiedCitation, len(citations))
	for _, c := range citations {
		byClaim[c.ClaimID] = c
	}

	ctx := model.CitationContext{
		Chapter:        chapter,
		Section:        section,
		CitationFormat: "author_year",
	}

	seenRefs := make(map[string]bool)
	for _, claim := range claims {
		if claim.Chapter != chapter || claim.Section != section {
			continue
		}
		cit, ok := byClaim[claim.ID]
		if !ok {
			continue
		}
		ctx.AllowedClaims = append(ctx.AllowedClaims, model.AllowedClaim{
			ClaimText:       claim.Content,
			CitationText:    cit.CitationText,
			SupportingQuote: cit.SupportingQuote,
			Importance:      claim.Importance,
		})
		if !seenRefs[cit.FullReference] {
			seenRefs[cit.FullReference] = true
			ctx.References = append(ctx.References, cit.FullReference)
		}
	}
	sort.Strings(ctx.References)
	return ctx
}

// FormatInstructions renders the context as instruction text for the
// writer. An empty section gets the restrictive variant: no factual
// claims at all.
func FormatInstructions(ctx model.CitationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CITATION REQUIREMENTS FOR CHAPTER %d, SECTION %d\n\n", ctx.Chapter, ctx.Section)

	if len(ctx.AllowedClaims) == 0 {
		b.WriteString("No verified claims are available for this section. ")
		b.WriteString("Avoid factual claims that would require citations; write in general terms only.\n")
		return b.String()
	}

	b.WriteString("You may state ONLY the following verified claims, each with its citation:\n\n")
	for i, ac := range ctx.AllowedClaims {
		fmt.Fprintf(&b, "%d. %s [%s]\n", i+1, ac.ClaimText, ac.CitationText)
		if ac.SupportingQuote != "" {
			fmt.Fprintf(&b, "   Supporting quote: %q\n", ac.SupportingQuote)
		}
	}
	b.WriteString("\nDo not introduce factual claims outside this list. ")
	b.WriteString("Every claim above must carry its bracketed citation when used.\n")

	if len(ctx.References) > 0 {
		b.WriteString("\nReferences:\n")
		for _, ref := range ctx.References {
			fmt.Fprintf(&b, "- %s\n", ref)
		}
	}
	return b.String()
}

// Bibliography returns the deduplicated, sorted reference list across
// all citations.
func Bibliography(citations []model.VerifiedCitation) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, c := range citations {
		if c.FullReference == "" || seen[c.FullReference] {
			continue
		}
		seen[c.FullReference] = true
		refs = append(refs, c.FullReference)
	}
	sort.Strings(refs)
	return refs
}

// WriteBibliographyMarkdown writes the reference list as a markdown
// artifact.
func WriteBibliographyMarkdown(path string, citations []model.VerifiedCitation) error {
	var b strings.Builder
	b.WriteString("# References\n\n")
	for _, ref := range Bibliography(citations) {
		fmt.Fprintf(&b, "- %s\n", ref)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write bibliography: %w", err)
	}
	return nil
}
