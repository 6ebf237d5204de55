// Package chunk splits extracted document text into overlapping,
// sentence-aligned passages for evidence retrieval.
package chunk

import "strings"

const (
	// DefaultChunkSizeWords is the sliding window size in words.
	DefaultChunkSizeWords = 500
	// DefaultOverlapWords is how many words consecutive chunks share.
	DefaultOverlapWords = 50

	// minRetained is the fraction of the raw window a sentence-aligned
	// cut must keep. A terminal found earlier than this is ignored and
	// the raw cut is used instead.
	minRetained = 0.7
)

// Chunk is one passage-sized piece of a page. Start and End are word
// offsets within the page, [Start, End).
type Chunk struct {
	Text  string
	Page  int
	Start int
	End   int
}

// Chunker splits page text into overlapping word windows, preferring to
// cut at sentence boundaries.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Non-positive sizes fall back to defaults; the
// overlap is clamped so every window makes forward progress even after
// sentence-boundary trimming.
func New(sizeWords, overlapWords int) *Chunker {
	if sizeWords <= 0 {
		sizeWords = DefaultChunkSizeWords
	}
	if overlapWords < 0 {
		overlapWords = DefaultOverlapWords
	}
	if float64(overlapWords) >= minRetained*float64(sizeWords) {
		overlapWords = sizeWords / 10
	}
	return &Chunker{size: sizeWords, overlap: overlapWords}
}

// Split chunks one page of text. Texts at most one window long yield a
// single chunk spanning every word. Longer texts slide a window of size
// words, trimming each cut back to the last sentence terminal when that
// keeps at least 70% of the raw window, then advancing by size-overlap.
// The loop stops once the next window would start inside the final
// overlap tail, so short tails never produce degenerate chunks.
func (c *Chunker) Split(text string, page int) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	if len(words) <= c.size {
		return []Chunk{{
			Text:  strings.Join(words, " "),
			Page:  page,
			Start: 0,
			End:   len(words),
		}}
	}

	var chunks []Chunk
	start := 0
	for {
		rawEnd := start + c.size
		if rawEnd > len(words) {
			rawEnd = len(words)
		}

		end := rawEnd
		if rawEnd < len(words) {
			if cut := sentenceCut(words, start, rawEnd); cut > 0 {
				end = cut
			}
		}

		chunks = append(chunks, Chunk{
			Text:  strings.Join(words[start:end], " "),
			Page:  page,
			Start: start,
			End:   end,
		})

		next := end - c.overlap
		if next >= len(words)-c.overlap || next <= start {
			break
		}
		start = next
	}

	return chunks
}

// sentenceCut searches backward from the raw window end for the last
// sentence terminal that retains at least minRetained of the window.
// Returns the cut position (exclusive end), or 0 if none qualifies.
func sentenceCut(words []string, start, rawEnd int) int {
	window := float64(rawEnd - start)
	for j := rawEnd - 1; j > start; j-- {
		if float64(j-start) < minRetained*window {
			return 0
		}
		if endsSentence(words[j-1]) {
			return j
		}
	}
	return 0
}

// endsSentence reports whether a word closes a sentence. Within joined
// text this corresponds to the terminals ". ", "? ", and "! ".
func endsSentence(w string) bool {
	if w == "" {
		return false
	}
	switch w[len(w)-1] {
	case '.', '?', '!':
		return true
	}
	return false
}
