package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/veridoc/citepipe/internal/model"
)

// claimsFile is the accepted input shape: either a bare array of claims
// or an object with a "claims" key.
type claimsFile struct {
	Claims []model.Claim `json:"claims"`
}

// LoadClaims reads the claims input file. Claims with empty content are
// skipped, and duplicate ids keep the first occurrence, mirroring how
// batch inputs are cleaned elsewhere in the pipeline.
func LoadClaims(path string) ([]model.Claim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read claims file: %w", err)
	}

	var claims []model.Claim
	if err := json.Unmarshal(data, &claims); err != nil {
		var wrapped claimsFile
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("decode claims file: %w", err)
		}
		claims = wrapped.Claims
	}

	seen := make(map[string]bool, len(claims))
	cleaned := make([]model.Claim, 0, len(claims))
	for _, c := range claims {
		if strings.TrimSpace(c.Content) == "" || c.ID == "" {
			continue
		}
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		cleaned = append(cleaned, c)
	}

	if len(cleaned) == 0 {
		return nil, fmt.Errorf("no usable claims in %s", path)
	}
	return cleaned, nil
}
