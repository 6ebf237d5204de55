package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veridoc/citepipe/internal/acquire"
	"github.com/veridoc/citepipe/internal/cache"
	"github.com/veridoc/citepipe/internal/citectx"
	"github.com/veridoc/citepipe/internal/dedup"
	"github.com/veridoc/citepipe/internal/ledger"
	"github.com/veridoc/citepipe/internal/model"
	"github.com/veridoc/citepipe/internal/search"
	"github.com/veridoc/citepipe/internal/store"
	"github.com/veridoc/citepipe/internal/verify"
	"github.com/veridoc/citepipe/internal/worker"
)

var (
	outputDir    string
	topic        string
	threshold    float64
	floor        string
	workers      int
	requestDelay time.Duration
	runTimeout   time.Duration
	noCache      bool
	noDiscovery  bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claims.json>",
	Short: "Verify claims against external sources and build citations",
	Long: `Verify runs the full pipeline over a claims file:
- Discover candidate sources for each claim (when a search endpoint is configured)
- Acquire and chunk source documents
- Index evidence passages (when an evidence store is configured)
- Run each claim through the verifier with bounded concurrency
- Persist outcomes incrementally so an interrupted run resumes

Example:
  citepipe verify claims.json
  citepipe verify claims.json --topic "transformer architectures" --threshold 0.8
  citepipe verify claims.json --workers 5 --output ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&outputDir, "output", "o", "./citepipe-output", "output directory for artifacts")
	verifyCmd.Flags().StringVar(&topic, "topic", "", "topic context passed to the verifier")
	verifyCmd.Flags().Float64Var(&threshold, "threshold", 0.75, "minimum verifier confidence to accept a citation")
	verifyCmd.Flags().StringVar(&floor, "importance-floor", "medium", "lowest importance tier to verify (critical, high, medium, low)")
	verifyCmd.Flags().IntVar(&workers, "workers", 10, "max concurrent verifier calls")
	verifyCmd.Flags().DurationVar(&requestDelay, "delay", 500*time.Millisecond, "pause after each verifier call")
	verifyCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the document cache")
	verifyCmd.Flags().BoolVar(&noDiscovery, "no-discovery", false, "skip source discovery and acquisition")
}

// buildConfig resolves the run configuration: defaults, config file
// values, then flags.
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("search.base_url"); v != "" {
		cfg.Search.BaseURL = v
	}
	if v := viper.GetString("store.host"); v != "" {
		cfg.Store.Host = v
	}
	if v := viper.GetString("store.scheme"); v != "" {
		cfg.Store.Scheme = v
	}
	if v := viper.GetString("verifier.model"); v != "" {
		cfg.Verifier.Model = v
	}
	if v := viper.GetString("verifier.base_url"); v != "" {
		cfg.Verifier.BaseURL = v
	}
	if v := viper.GetStringSlice("verification.disallowed_domains"); len(v) > 0 {
		cfg.Verification.DisallowedDomains = v
	}

	cfg.Verification.ConfidenceThreshold = threshold
	cfg.Verification.ImportanceFloor = model.Importance(floor)
	cfg.Verification.Topic = topic
	cfg.Concurrency.VerifyWorkers = workers
	cfg.RateLimiting.RequestDelay = requestDelay
	cfg.Cache.Enabled = !noCache
	cfg.Output.Dir = outputDir
	cfg.Output.Verbose = verbose

	cfg.Verifier.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Search.APIKey = os.Getenv("CITEPIPE_SEARCH_API_KEY")

	return cfg
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := buildConfig()
	logger := newLogger()

	claims, err := LoadClaims(args[0])
	if err != nil {
		return err
	}
	logger.Info("loaded claims", "count", len(claims), "file", args[0])

	verifier, err := verify.NewClient(cfg.Verifier)
	if err != nil {
		return err
	}

	led, err := ledger.Open(cfg.Output.Dir)
	if err != nil {
		return err
	}

	var (
		sources []model.Source
		st      *store.Store
	)
	if !noDiscovery {
		sources, st = discoverAndAcquire(ctx, cfg, claims, logger)
	}

	var finder verify.PassageFinder
	if st != nil {
		finder = &evidenceFinder{store: st}
	}

	orch := verify.NewOrchestrator(cfg, verifier, finder, led, logger)
	verified, unverified, err := orch.VerifyAll(ctx, claims)
	if err != nil {
		return fmt.Errorf("verification: %w", err)
	}

	if err := writeArtifacts(cfg.Output.Dir, claims, sources, verified); err != nil {
		return err
	}

	printSummary(claims, verified, unverified)
	return nil
}

// evidenceFinder adapts the store's hybrid retrieval to the verifier's
// evidence hook, attributing each passage to its source URL.
type evidenceFinder struct {
	store *store.Store
}

func (f *evidenceFinder) Passages(ctx context.Context, claimText string, k int) []string {
	ranked := f.store.FindPassages(ctx, claimText, k, 0.3)
	out := make([]string, 0, len(ranked))
	for _, rp := range ranked {
		text := rp.Passage.Text
		if src, ok := f.store.GetSource(ctx, rp.Passage.SourceID); ok {
			text = fmt.Sprintf("%s (from %s)", text, src.URL)
		}
		out = append(out, text)
	}
	return out
}

// discoverAndAcquire finds candidate sources for the eligible claims,
// downloads and chunks them on a bounded pool, and indexes the passages
// when an evidence store is configured. Failures here degrade the
// evidence available to verification, never abort the run. The returned
// store is nil unless passages were indexed.
func discoverAndAcquire(ctx context.Context, cfg *model.Config, claims []model.Claim, logger *slog.Logger) ([]model.Source, *store.Store) {
	deduper := dedup.NewDeduper()

	searchClient := search.NewClient(cfg.Search, cfg.HTTP.Timeout)
	if searchClient.Enabled() {
		for _, claim := range claims {
			if !claim.Importance.AtLeast(cfg.Verification.ImportanceFloor) {
				continue
			}
			hits, err := searchClient.Search(ctx, claim.Content)
			if err != nil {
				logger.Warn("source discovery failed", "claim_id", claim.ID, "error", err)
				continue
			}
			for _, hit := range hits {
				deduper.AddHit(hit, search.ClassifyURL(hit.URL))
			}
		}
		logger.Info("discovered sources", "unique", deduper.Len())
	}

	sources := deduper.Sources()
	if len(sources) == 0 {
		return nil, nil
	}

	var docCache cache.Cache
	if cfg.Cache.Enabled {
		docCache = cache.NewLayered(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}
	acquirer := acquire.NewAcquirer(cfg, docCache, logger)

	pool := worker.NewPool(cfg.Concurrency.AcquireWorkers)
	pool.Start()
	go func() {
		for i := range sources {
			pool.Submit(&acquireJob{acquirer: acquirer, source: &sources[i]})
		}
	}()

	var passages []model.Passage
	for _, res := range pool.Wait() {
		if ar, ok := res.(*acquireResult); ok {
			passages = append(passages, ar.passages...)
		}
	}
	logger.Info("acquired documents", "sources", len(sources), "passages", len(passages))

	if cfg.Store.Host != "" && len(passages) > 0 {
		st, err := store.New(cfg.Store, logger)
		if err != nil {
			logger.Warn("evidence store unavailable", "error", err)
			return sources, nil
		}
		if err := st.EnsureSchema(ctx); err != nil {
			logger.Warn("evidence schema setup failed", "error", err)
			return sources, nil
		}
		st.AddSources(ctx, sources)
		st.AddPassages(ctx, passages)
		logger.Info("indexed evidence", "passages", len(passages))
		return sources, st
	}
	return sources, nil
}

// acquireJob adapts one source acquisition to the worker pool.
type acquireJob struct {
	acquirer *acquire.Acquirer
	source   *model.Source
}

type acquireResult struct {
	passages []model.Passage
}

func (r *acquireResult) GetError() error { return nil }

func (j *acquireJob) Execute(ctx context.Context) worker.Result {
	return &acquireResult{passages: j.acquirer.Acquire(ctx, j.source)}
}

// writeArtifacts persists the run's audit files next to the ledger
// output.
func writeArtifacts(dir string, claims []model.Claim, sources []model.Source, verified []model.VerifiedCitation) error {
	if err := writeJSONFile(filepath.Join(dir, "claims.json"), claims); err != nil {
		return err
	}
	if len(sources) > 0 {
		if err := writeJSONFile(filepath.Join(dir, "sources.json"), sources); err != nil {
			return err
		}
	}
	return citectx.WriteBibliographyMarkdown(filepath.Join(dir, "bibliography.md"), verified)
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// printSummary renders the run outcome to stderr, highlighting critical
// claims that remain unverified.
func printSummary(claims []model.Claim, verified []model.VerifiedCitation, unverified []model.UnverifiedClaim) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Verification Summary")
	fmt.Fprintln(os.Stderr, "====================")
	fmt.Fprintf(os.Stderr, "  Claims:     %d\n", len(claims))
	fmt.Fprintf(os.Stderr, "  Verified:   %d\n", len(verified))
	fmt.Fprintf(os.Stderr, "  Unverified: %d\n", len(unverified))

	var critical []model.UnverifiedClaim
	for _, u := range unverified {
		if u.Importance == model.ImportanceCritical {
			critical = append(critical, u)
		}
	}
	if len(critical) > 0 {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "  ⚠ %d critical claim(s) left unverified:\n", len(critical))
		for _, u := range critical {
			fmt.Fprintf(os.Stderr, "    - %s: %s (%s)\n", u.ClaimID, u.Content, u.Reason)
		}
	}
	fmt.Fprintln(os.Stderr)
}
