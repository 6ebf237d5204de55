package verify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VerifierVerdict is the structured reply expected from the verifier.
// The model is asked for strict JSON but real replies wrap it in prose
// or code fences, and year/authors come back as either strings or
// numbers/arrays, so decoding tolerates both shapes.
type VerifierVerdict struct {
	Verified        bool    `json:"verified"`
	Confidence      float64 `json:"confidence"`
	SourceURL       string  `json:"source_url"`
	SourceTitle     string  `json:"source_title"`
	Authors         flexStr `json:"authors"`
	Year            flexStr `json:"year"`
	SupportingQuote string  `json:"supporting_quote"`
	Explanation     string  `json:"explanation"`
}

// flexStr decodes a JSON string, number, or array of strings into one
// string value.
type flexStr string

func (f *flexStr) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexStr(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexStr(n.String())
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = flexStr(strings.Join(list, "; "))
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	return fmt.Errorf("unsupported value %s", data)
}

func (f flexStr) String() string { return string(f) }

// ParseVerdict decodes a verifier reply. It first tries the whole reply
// as JSON, then falls back to the first balanced object literal found in
// the text. An unparseable reply is an error, never a silent accept.
func ParseVerdict(raw string) (VerifierVerdict, error) {
	var v VerifierVerdict

	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return v, nil
	}

	obj, ok := firstJSONObject(trimmed)
	if !ok {
		return v, fmt.Errorf("no JSON object in verifier reply")
	}
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return v, fmt.Errorf("decode verifier reply: %w", err)
	}
	return v, nil
}

// firstJSONObject extracts the first balanced {...} from text, tracking
// string literals so braces inside quoted values do not miscount.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
