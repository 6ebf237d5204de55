package model

import "time"

// Config holds the full pipeline configuration. Values are resolved in
// priority order: CLI flags, CITEPIPE_* environment variables, config
// file (~/.citepipe/config.yaml), then these defaults.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" json:"http"`
	Cache        CacheConfig        `yaml:"cache" json:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" json:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" json:"rate_limiting"`
	Verification VerificationConfig `yaml:"verification" json:"verification"`
	Verifier     VerifierConfig     `yaml:"verifier" json:"verifier"`
	Search       SearchConfig       `yaml:"search" json:"search"`
	Store        StoreConfig        `yaml:"store" json:"store"`
	Output       OutputConfig       `yaml:"output" json:"output"`
}

// HTTPConfig configures outbound document fetching.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	HTTPProxy     string        `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" json:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" json:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots" json:"respect_robots"`
}

// CacheConfig configures the local document cache used to make
// reacquisition idempotent.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig bounds the worker pools.
type ConcurrencyConfig struct {
	VerifyWorkers  int `yaml:"verify_workers" json:"verify_workers"`
	AcquireWorkers int `yaml:"acquire_workers" json:"acquire_workers"`
}

// RateLimitingConfig paces outbound requests.
type RateLimitingConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	RequestDelay      time.Duration `yaml:"request_delay" json:"request_delay"` // Sleep after each verifier call
}

// VerificationConfig holds the accept/reject policy knobs.
type VerificationConfig struct {
	ConfidenceThreshold float64    `yaml:"confidence_threshold" json:"confidence_threshold"`
	ImportanceFloor     Importance `yaml:"importance_floor" json:"importance_floor"`
	// DisallowedDomains lists secondary-source domains that are never
	// accepted regardless of confidence, matched by host suffix.
	DisallowedDomains []string `yaml:"disallowed_domains" json:"disallowed_domains"`
	Topic             string   `yaml:"topic" json:"topic"` // Topic context passed to the verifier
}

// VerifierConfig configures the external verifier collaborator.
type VerifierConfig struct {
	Model     string        `yaml:"model" json:"model"`
	APIKey    string        `yaml:"-" json:"-"` // From OPENAI_API_KEY, never persisted
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	MaxTokens int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// SearchConfig configures the external search collaborator. An empty
// BaseURL disables source discovery.
type SearchConfig struct {
	BaseURL    string `yaml:"base_url" json:"base_url"`
	APIKey     string `yaml:"-" json:"-"`
	MaxResults int    `yaml:"max_results" json:"max_results"`
}

// StoreConfig configures the Weaviate-backed evidence store. An empty
// Host disables evidence indexing.
type StoreConfig struct {
	Host      string `yaml:"host" json:"host"`
	Scheme    string `yaml:"scheme" json:"scheme"`
	ClassName string `yaml:"class_name" json:"class_name"`
}

// OutputConfig controls artifact and summary output.
type OutputConfig struct {
	Dir     string `yaml:"dir" json:"dir"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Citepipe/0.1 (+https://github.com/veridoc/citepipe)",
			MaxBodyBytes:  20_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "./citepipe-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			VerifyWorkers:  10,
			AcquireWorkers: 5,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
			RequestDelay:      500 * time.Millisecond,
		},
		Verification: VerificationConfig{
			ConfidenceThreshold: 0.75,
			ImportanceFloor:     ImportanceMedium,
			DisallowedDomains: []string{
				"wikipedia.org",
				"britannica.com",
				"encyclopedia.com",
			},
		},
		Verifier: VerifierConfig{
			Model:     "gpt-4o-mini",
			MaxTokens: 1000,
			Timeout:   60 * time.Second,
		},
		Search: SearchConfig{
			MaxResults: 10,
		},
		Store: StoreConfig{
			Scheme:    "http",
			ClassName: "EvidencePassage",
		},
		Output: OutputConfig{
			Dir: "./citepipe-output",
		},
	}
}
