package verify

import (
	"fmt"
	"strings"
)

// placeholderYears are verifier replies that mean "no year known".
var placeholderYears = map[string]bool{
	"":        true,
	"unknown": true,
	"n.d.":    true,
	"n/a":     true,
	"none":    true,
}

// normalizeYear maps missing or placeholder years to the conventional
// "n.d." (no date).
func normalizeYear(year string) string {
	y := strings.TrimSpace(year)
	if placeholderYears[strings.ToLower(y)] {
		return "n.d."
	}
	return y
}

// CitationText builds the short in-text form: "LastName et al., Year"
// for multiple authors, "LastName, Year" for one, or a quoted short
// title with year when no author is known.
func CitationText(authors, title, year string) string {
	year = normalizeYear(year)

	last := firstAuthorLastName(authors)
	if last == "" {
		return fmt.Sprintf("%q, %s", shortTitle(title), year)
	}
	if multipleAuthors(authors) {
		return fmt.Sprintf("%s et al., %s", last, year)
	}
	return fmt.Sprintf("%s, %s", last, year)
}

// FullReference builds the bibliography entry: author-first when
// authors are known, title-first otherwise.
func FullReference(authors, title, year, sourceURL string) string {
	year = normalizeYear(year)
	title = strings.TrimSpace(title)
	authors = strings.TrimSpace(authors)

	if authors != "" {
		return fmt.Sprintf("%s (%s). %s. %s", authors, year, title, sourceURL)
	}
	if title != "" {
		return fmt.Sprintf("%s (%s). %s", title, year, sourceURL)
	}
	return fmt.Sprintf("(%s). %s", year, sourceURL)
}

// firstAuthorLastName extracts the last name of the first listed
// author. Author strings arrive either "Last, F." or "First Last"; the
// segment before the first comma or semicolon, reduced to its final
// word when it contains spaces, is the last name for both.
func firstAuthorLastName(authors string) string {
	a := strings.TrimSpace(authors)
	if a == "" {
		return ""
	}
	if i := strings.IndexAny(a, ";"); i >= 0 {
		a = a[:i]
	}
	if i := strings.Index(a, " and "); i >= 0 {
		a = a[:i]
	}
	a = strings.TrimSpace(a)

	if i := strings.Index(a, ","); i >= 0 {
		// "Vaswani, A." form: last name precedes the comma.
		return strings.TrimSpace(a[:i])
	}
	// "Ashish Vaswani" form: last word.
	fields := strings.Fields(a)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// multipleAuthors reports whether the author string lists more than one
// person.
func multipleAuthors(authors string) bool {
	a := strings.TrimSpace(authors)
	if strings.Contains(a, ";") || strings.Contains(a, " and ") || strings.Contains(a, " et al") {
		return true
	}
	// "Last, F." has one comma; two or more commas means several names.
	return strings.Count(a, ",") > 1
}

// shortTitle truncates a title for in-text use.
func shortTitle(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return "Untitled"
	}
	words := strings.Fields(t)
	if len(words) <= 5 {
		return t
	}
	return strings.Join(words[:5], " ") + "..."
}
