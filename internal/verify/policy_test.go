package verify

import (
	"strings"
	"testing"

	"github.com/veridoc/citepipe/internal/model"
)

func testPolicy() Policy {
	return NewPolicy(model.VerificationConfig{
		ConfidenceThreshold: 0.75,
		DisallowedDomains:   []string{"wikipedia.org", "britannica.com", "encyclopedia.com"},
	})
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		verdict    VerifierVerdict
		wantReject string // substring of rejection reason, "" = accept
	}{
		{
			name:    "accepted above threshold",
			verdict: VerifierVerdict{Verified: true, Confidence: 0.9, SourceURL: "https://arxiv.org/abs/1706.03762"},
		},
		{
			name:    "accepted exactly at threshold",
			verdict: VerifierVerdict{Verified: true, Confidence: 0.75, SourceURL: "https://arxiv.org/abs/1706.03762"},
		},
		{
			name:       "rejected below threshold despite verified flag",
			verdict:    VerifierVerdict{Verified: true, Confidence: 0.6, SourceURL: "https://arxiv.org/abs/1706.03762"},
			wantReject: "below threshold",
		},
		{
			name:       "rejected when verifier says no",
			verdict:    VerifierVerdict{Verified: false, Confidence: 0.95, SourceURL: "https://arxiv.org/abs/1706.03762"},
			wantReject: "not verified",
		},
		{
			name:       "rejected without source URL",
			verdict:    VerifierVerdict{Verified: true, Confidence: 0.9, SourceURL: "  "},
			wantReject: "without a source URL",
		},
		{
			name:       "disallowed domain rejected at full confidence",
			verdict:    VerifierVerdict{Verified: true, Confidence: 1.0, SourceURL: "https://en.wikipedia.org/wiki/Transformer"},
			wantReject: "secondary source",
		},
		{
			name:       "disallowed domain with www prefix",
			verdict:    VerifierVerdict{Verified: true, Confidence: 0.9, SourceURL: "https://www.britannica.com/topic/x"},
			wantReject: "secondary source",
		},
		{
			name: "lookalike domain is not disallowed",
			// notwikipedia.org is not a subdomain of wikipedia.org.
			verdict: VerifierVerdict{Verified: true, Confidence: 0.9, SourceURL: "https://notwikipedia.org/a"},
		},
		{
			name:       "schemeless disallowed URL still rejected",
			verdict:    VerifierVerdict{Verified: true, Confidence: 0.95, SourceURL: "en.wikipedia.org/wiki/Transformer"},
			wantReject: "secondary source",
		},
		{
			name:    "schemeless allowed URL accepted",
			verdict: VerifierVerdict{Verified: true, Confidence: 0.9, SourceURL: "arxiv.org/abs/1706.03762"},
		},
		{
			name:       "URL without any host rejected",
			verdict:    VerifierVerdict{Verified: true, Confidence: 0.9, SourceURL: "/wiki/Transformer"},
			wantReject: "no resolvable host",
		},
	}

	p := testPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Evaluate(tt.verdict)
			if tt.wantReject == "" {
				if err != nil {
					t.Errorf("expected accept, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected rejection")
			}
			if !strings.Contains(err.Error(), tt.wantReject) {
				t.Errorf("reason %q does not mention %q", err, tt.wantReject)
			}
		})
	}
}
