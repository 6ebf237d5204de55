package chunk

import (
	"fmt"
	"strings"
	"testing"
)

// wordsText builds "w0 w1 ... wN-1" with no sentence terminals.
func wordsText(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	c := New(500, 50)

	for _, n := range []int{1, 10, 499, 500} {
		chunks := c.Split(wordsText(n), 3)
		if len(chunks) != 1 {
			t.Fatalf("n=%d: expected 1 chunk, got %d", n, len(chunks))
		}
		if chunks[0].Start != 0 || chunks[0].End != n {
			t.Errorf("n=%d: expected span [0,%d), got [%d,%d)", n, n, chunks[0].Start, chunks[0].End)
		}
		if chunks[0].Page != 3 {
			t.Errorf("n=%d: expected page 3, got %d", n, chunks[0].Page)
		}
	}
}

func TestSplit_EmptyText(t *testing.T) {
	c := New(500, 50)
	if chunks := c.Split("   \n\t ", 1); chunks != nil {
		t.Errorf("expected nil for blank text, got %d chunks", len(chunks))
	}
}

func TestSplit_RawOverlapWithoutTerminals(t *testing.T) {
	c := New(100, 10)
	chunks := c.Split(wordsText(950), 1)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.End-ch.Start > 100 {
			t.Errorf("chunk %d: length %d exceeds window size", i, ch.End-ch.Start)
		}
		if i > 0 {
			prev := chunks[i-1]
			if ch.Start != prev.End-10 {
				t.Errorf("chunk %d: start %d, want %d (prev end %d - overlap 10)", i, ch.Start, prev.End-10, prev.End)
			}
		}
	}
}

func TestSplit_SentenceBoundaryTrim(t *testing.T) {
	// 100-word window; sentence terminal after word 89 (index 89 ends
	// with '.'), inside the last 30% of the window, so the first chunk
	// should end at word 90.
	parts := make([]string, 200)
	for i := range parts {
		parts[i] = "word"
	}
	parts[89] = "word."

	c := New(100, 10)
	chunks := c.Split(strings.Join(parts, " "), 1)

	if chunks[0].End != 90 {
		t.Errorf("expected first chunk trimmed to word 90, got end %d", chunks[0].End)
	}
	if chunks[1].Start != 80 {
		t.Errorf("expected second chunk to start at 80, got %d", chunks[1].Start)
	}
}

func TestSplit_TerminalBeforeThresholdIgnored(t *testing.T) {
	// Terminal after word 49 retains only 50% of the window, below the
	// 70% floor, so the raw cut at 100 must be kept.
	parts := make([]string, 200)
	for i := range parts {
		parts[i] = "word"
	}
	parts[49] = "word."

	c := New(100, 10)
	chunks := c.Split(strings.Join(parts, " "), 1)

	if chunks[0].End != 100 {
		t.Errorf("expected raw cut at 100, got %d", chunks[0].End)
	}
}

func TestSplit_QuestionAndExclamationTerminals(t *testing.T) {
	for _, terminal := range []string{"word?", "word!"} {
		parts := make([]string, 150)
		for i := range parts {
			parts[i] = "word"
		}
		parts[94] = terminal

		c := New(100, 10)
		chunks := c.Split(strings.Join(parts, " "), 1)
		if chunks[0].End != 95 {
			t.Errorf("terminal %q: expected trim to 95, got %d", terminal, chunks[0].End)
		}
	}
}

func TestSplit_TerminatesOnShortTail(t *testing.T) {
	// 105 words with size 100, overlap 10: chunks [0,100) and [90,105).
	// The next start (95) falls inside the final overlap tail, so the
	// loop must stop instead of emitting a degenerate third chunk.
	c := New(100, 10)
	chunks := c.Split(wordsText(105), 1)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[1].Start != 90 || chunks[1].End != 105 {
		t.Errorf("expected tail chunk [90,105), got [%d,%d)", chunks[1].Start, chunks[1].End)
	}
}

func TestNew_ClampsDegenerateOverlap(t *testing.T) {
	// Overlap >= 70% of the window could stall the slide; New must
	// clamp it to something that guarantees progress.
	c := New(10, 9)
	chunks := c.Split(wordsText(100), 1)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start <= chunks[i-1].Start {
			t.Fatalf("chunk %d did not advance: start %d after %d", i, chunks[i].Start, chunks[i-1].Start)
		}
	}
}
