package store

import (
	"testing"

	wmodels "github.com/weaviate/weaviate/entities/models"
)

func TestParseRanked_FiltersByThreshold(t *testing.T) {
	data := map[string]wmodels.JSONObject{
		"Get": map[string]interface{}{
			"EvidencePassage": []interface{}{
				map[string]interface{}{
					"passageId": "abc_c0",
					"sourceId":  "abc",
					"text":      "high relevance passage",
					"page":      float64(1),
					"startWord": float64(0),
					"endWord":   float64(100),
					"_additional": map[string]interface{}{
						"score": "0.92",
					},
				},
				map[string]interface{}{
					"passageId": "abc_c1",
					"sourceId":  "abc",
					"text":      "weak passage",
					"_additional": map[string]interface{}{
						"score": "0.12",
					},
				},
			},
		},
	}

	ranked := parseRanked(data, "EvidencePassage", 0.5)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 passage above threshold, got %d", len(ranked))
	}
	p := ranked[0]
	if p.Passage.ID != "abc_c0" || p.Score != 0.92 {
		t.Errorf("unexpected result: id=%q score=%v", p.Passage.ID, p.Score)
	}
	if p.Passage.Page != 1 || p.Passage.EndWord != 100 {
		t.Errorf("numeric fields not decoded: page=%d end=%d", p.Passage.Page, p.Passage.EndWord)
	}
}

func TestParseRanked_EmptyCorpus(t *testing.T) {
	// A missing Get payload (empty corpus, no class yet) must yield an
	// empty result, not a panic or error.
	if got := parseRanked(map[string]wmodels.JSONObject{}, "EvidencePassage", 0); got != nil {
		t.Errorf("expected nil for empty response, got %v", got)
	}
}

func TestDeterministicUUID_Stable(t *testing.T) {
	a := deterministicUUID("abc_c0")
	b := deterministicUUID("abc_c0")
	if a != b {
		t.Errorf("uuid not stable: %s vs %s", a, b)
	}
	if a == deterministicUUID("abc_c1") {
		t.Error("different ids must map to different uuids")
	}
}

func TestExtractScore_MalformedAdditional(t *testing.T) {
	if s := extractScore(map[string]interface{}{}); s != 0 {
		t.Errorf("expected 0 for missing _additional, got %v", s)
	}
	if s := extractScore(map[string]interface{}{"_additional": map[string]interface{}{"score": "not-a-number"}}); s != 0 {
		t.Errorf("expected 0 for malformed score, got %v", s)
	}
}
