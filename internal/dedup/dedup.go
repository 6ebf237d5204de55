// Package dedup normalizes discovered source URLs and folds duplicate
// discoveries into a single stable record per source.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/veridoc/citepipe/internal/model"
)

// NormalizeURL canonicalizes a URL for identity purposes: the whole URL
// is lowercased, the fragment is dropped, and a trailing slash is
// stripped. Identity is deliberately case-insensitive so the same
// document discovered with different casing maps to one source.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(strings.ToLower(raw), "/")
}

// SourceID derives the stable source identifier from a URL. The id is
// insensitive to case and trailing-slash differences, so rediscovering
// a source never creates a duplicate.
func SourceID(rawURL string) string {
	sum := sha256.Sum256([]byte(NormalizeURL(rawURL)))
	return hex.EncodeToString(sum[:8])
}

// Deduper accumulates discovered sources, keeping one record per
// normalized URL. Not safe for concurrent use; discovery feeds it from
// a single goroutine.
type Deduper struct {
	byID  map[string]model.Source
	order []string
}

// NewDeduper creates an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{byID: make(map[string]model.Source)}
}

// Add folds a discovered source into the set and returns its stable id.
// On collision the existing record wins, except that empty title/author/
// year fields are filled in from the newcomer.
func (d *Deduper) Add(src model.Source) string {
	id := SourceID(src.URL)
	existing, ok := d.byID[id]
	if !ok {
		src.ID = id
		d.byID[id] = src
		d.order = append(d.order, id)
		return id
	}

	if existing.Title == "" {
		existing.Title = src.Title
	}
	if existing.Authors == "" {
		existing.Authors = src.Authors
	}
	if existing.Year == "" {
		existing.Year = src.Year
	}
	d.byID[id] = existing
	return id
}

// AddHit converts a raw search hit into a source and folds it in.
func (d *Deduper) AddHit(hit model.SearchHit, srcType model.SourceType) string {
	return d.Add(model.Source{
		URL:     hit.URL,
		Title:   hit.Title,
		Authors: hit.Authors,
		Year:    yearFromDate(hit.Date),
		Type:    srcType,
	})
}

// Sources returns the deduplicated sources in first-discovery order.
func (d *Deduper) Sources() []model.Source {
	out := make([]model.Source, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}

// Len returns the number of unique sources.
func (d *Deduper) Len() int {
	return len(d.byID)
}

// yearFromDate extracts a 4-digit year prefix from a date string like
// "2017-06-12", or returns the string unchanged when it is already a
// bare year.
func yearFromDate(date string) string {
	date = strings.TrimSpace(date)
	if len(date) >= 4 {
		year := date[:4]
		for _, r := range year {
			if r < '0' || r > '9' {
				return ""
			}
		}
		return year
	}
	return ""
}
