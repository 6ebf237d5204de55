// Package verify runs claims through the external verifier, applies the
// accept/reject policy, and synthesizes citations for accepted claims.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veridoc/citepipe/internal/model"
)

// Verifier is the collaborator that judges one claim. Satisfied by
// Client; tests substitute their own.
type Verifier interface {
	Verify(ctx context.Context, claim model.Claim, topic string, evidence []string) (string, error)
}

// PassageFinder supplies locally indexed evidence passages relevant to
// a claim. May be nil when no evidence store is configured.
type PassageFinder interface {
	Passages(ctx context.Context, claimText string, k int) []string
}

// Client is the OpenAI-backed verifier.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewClient creates a verifier client. A missing API key is a
// configuration error: verification cannot run without it.
func NewClient(cfg model.VerifierConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("verifier API key is required (set OPENAI_API_KEY)")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     modelName,
		maxTokens: maxTokens,
		timeout:   timeout,
	}, nil
}

const systemPrompt = "You are a fact verification assistant. You locate authoritative " +
	"primary sources for factual claims and report your findings as strict JSON. " +
	"Never cite encyclopedias or other secondary aggregators."

// Verify asks the verifier to judge one claim and returns the raw reply
// for the caller to parse. Evidence passages, when available, are
// offered as supporting material the verifier may quote from.
func (c *Client) Verify(ctx context.Context, claim model.Claim, topic string, evidence []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(claim, topic, evidence)},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.2,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("verifier call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty verifier response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(claim model.Claim, topic string, evidence []string) string {
	var b strings.Builder
	b.WriteString("Verify the following factual claim")
	if topic != "" {
		fmt.Fprintf(&b, " (topic context: %s)", topic)
	}
	b.WriteString(":\n\n")
	fmt.Fprintf(&b, "Claim: %s\n", claim.Content)
	if claim.Type != "" {
		fmt.Fprintf(&b, "Claim type: %s\n", claim.Type)
	}
	if len(evidence) > 0 {
		b.WriteString("\nRelevant passages from already-acquired sources (not exhaustive):\n")
		for i, p := range evidence {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, p)
		}
	}
	b.WriteString(`
Find an authoritative primary source that supports or refutes the claim.
Respond with ONLY a JSON object of this exact shape:

{
  "verified": true or false,
  "confidence": 0.0 to 1.0,
  "source_url": "direct URL of the supporting source, empty if none",
  "source_title": "title of the source",
  "authors": "author names, e.g. 'Vaswani, A.; Shazeer, N.'",
  "year": "publication year",
  "supporting_quote": "short quote from the source that backs the claim",
  "explanation": "one sentence on why the source supports or fails the claim"
}

Rules:
- verified is true only if the source directly supports the claim.
- Prefer papers, official documentation, and primary reporting.
- Do not cite Wikipedia or other encyclopedias.
- If no adequate source exists, set verified to false and explain.
`)
	return b.String()
}
