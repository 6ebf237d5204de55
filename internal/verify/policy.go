package verify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/veridoc/citepipe/internal/model"
)

// Policy is the accept/reject gate applied to parsed verdicts. All
// conditions must hold for a citation to be created; a failed gate
// yields the reason recorded on the unverified claim.
type Policy struct {
	ConfidenceThreshold float64
	DisallowedDomains   []string
}

// NewPolicy builds the gate from configuration.
func NewPolicy(cfg model.VerificationConfig) Policy {
	return Policy{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		DisallowedDomains:   cfg.DisallowedDomains,
	}
}

// Evaluate returns nil if the verdict is acceptable, or the rejection
// reason. The order mirrors how a reviewer would triage: flat refusal,
// weak confidence, no source, bad source.
func (p Policy) Evaluate(v VerifierVerdict) error {
	if !v.Verified {
		reason := v.Explanation
		if reason == "" {
			reason = "verifier reported the claim unverified"
		}
		return fmt.Errorf("not verified: %s", reason)
	}
	if v.Confidence < p.ConfidenceThreshold {
		return fmt.Errorf("confidence %.2f below threshold %.2f", v.Confidence, p.ConfidenceThreshold)
	}
	if strings.TrimSpace(v.SourceURL) == "" {
		return fmt.Errorf("verified without a source URL")
	}
	host := sourceHost(v.SourceURL)
	if host == "" {
		// A source whose host cannot be determined cannot be policy
		// checked, so it is never accepted.
		return fmt.Errorf("source URL %q has no resolvable host", v.SourceURL)
	}
	if domain := p.disallowedDomain(host); domain != "" {
		return fmt.Errorf("secondary source %s is not accepted", domain)
	}
	return nil
}

// sourceHost extracts the lowercased host of a source URL, tolerating
// schemeless replies like "en.wikipedia.org/wiki/X". Returns "" when no
// host can be determined.
func sourceHost(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		parsed, err = url.Parse("https://" + raw)
		if err != nil {
			return ""
		}
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// disallowedDomain returns the matching disallowed domain for the host,
// or "". Matching is by suffix so subdomains (en.wikipedia.org) are
// caught too.
func (p Policy) disallowedDomain(host string) string {
	for _, d := range p.DisallowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return d
		}
	}
	return ""
}
