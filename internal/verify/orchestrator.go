package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veridoc/citepipe/internal/ledger"
	"github.com/veridoc/citepipe/internal/model"
)

// Orchestrator drives claim verification: importance filtering, a
// bounded worker pool over the verifier, the accept/reject gate, and
// incremental persistence of every outcome through the ledger.
type Orchestrator struct {
	verifier Verifier
	finder   PassageFinder
	policy   Policy
	ledger   *ledger.Ledger
	logger   *slog.Logger

	topic           string
	importanceFloor model.Importance
	maxConcurrent   int
	requestDelay    time.Duration

	verified   atomic.Int64
	unverified atomic.Int64
	skipped    atomic.Int64
}

// Stats is a point-in-time progress snapshot.
type Stats struct {
	Verified   int64
	Unverified int64
	Skipped    int64
}

// NewOrchestrator wires the verification loop. The ledger is required;
// every completed claim is persisted through it before the run moves
// on. The finder may be nil when no evidence store is configured.
func NewOrchestrator(cfg *model.Config, verifier Verifier, finder PassageFinder, led *ledger.Ledger, logger *slog.Logger) *Orchestrator {
	maxConcurrent := cfg.Concurrency.VerifyWorkers
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &Orchestrator{
		verifier:        verifier,
		finder:          finder,
		policy:          NewPolicy(cfg.Verification),
		ledger:          led,
		logger:          logger,
		topic:           cfg.Verification.Topic,
		importanceFloor: cfg.Verification.ImportanceFloor,
		maxConcurrent:   maxConcurrent,
		requestDelay:    cfg.RateLimiting.RequestDelay,
	}
}

// Stats returns the running counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Verified:   o.verified.Load(),
		Unverified: o.unverified.Load(),
		Skipped:    o.skipped.Load(),
	}
}

// VerifyAll runs every eligible claim through the verifier with at most
// maxConcurrent calls in flight and returns the merged sets, including
// outcomes recorded by earlier interrupted runs. Claims below the
// importance floor are skipped entirely; claims already verified in the
// ledger are not re-attempted. Each worker sleeps the configured delay
// before releasing its slot so the verifier sees paced traffic.
func (o *Orchestrator) VerifyAll(ctx context.Context, claims []model.Claim) ([]model.VerifiedCitation, []model.UnverifiedClaim, error) {
	eligible := make([]model.Claim, 0, len(claims))
	for _, claim := range claims {
		if !claim.Importance.AtLeast(o.importanceFloor) {
			o.skipped.Add(1)
			continue
		}
		if o.ledger.IsVerified(claim.ID) {
			o.logger.Debug("claim already verified, skipping", "claim_id", claim.ID)
			o.skipped.Add(1)
			continue
		}
		eligible = append(eligible, claim)
	}

	o.logger.Info("starting verification",
		"total", len(claims),
		"eligible", len(eligible),
		"workers", o.maxConcurrent)

	// Completed records flow through one channel to a single recorder
	// goroutine, so the ledger write happens outside every worker's
	// network call.
	records := make(chan ledger.Record, o.maxConcurrent)
	recorderDone := make(chan error, 1)
	go func() {
		var firstErr error
		for rec := range records {
			if err := o.ledger.Record(rec); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		recorderDone <- firstErr
	}()

	sem := make(chan struct{}, o.maxConcurrent)
	var wg sync.WaitGroup

claimLoop:
	for _, claim := range eligible {
		select {
		case <-ctx.Done():
			break claimLoop
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(claim model.Claim) {
			defer wg.Done()
			defer func() {
				if o.requestDelay > 0 {
					time.Sleep(o.requestDelay)
				}
				<-sem
			}()

			records <- o.verifyOne(ctx, claim)
		}(claim)
	}

	wg.Wait()
	close(records)
	recordErr := <-recorderDone

	if err := o.ledger.Compact(); err != nil {
		o.logger.Warn("ledger compaction failed", "error", err)
	}

	stats := o.Stats()
	o.logger.Info("verification complete",
		"verified", stats.Verified,
		"unverified", stats.Unverified,
		"skipped", stats.Skipped)

	if recordErr != nil {
		return o.ledger.Verified(), o.ledger.Unverified(), fmt.Errorf("persist outcomes: %w", recordErr)
	}
	if err := ctx.Err(); err != nil {
		return o.ledger.Verified(), o.ledger.Unverified(), err
	}
	return o.ledger.Verified(), o.ledger.Unverified(), nil
}

// verifyOne takes a claim through call, parse, gate, and citation
// synthesis. Every failure path is an unverified outcome, never a lost
// claim.
func (o *Orchestrator) verifyOne(ctx context.Context, claim model.Claim) ledger.Record {
	var evidence []string
	if o.finder != nil {
		evidence = o.finder.Passages(ctx, claim.Content, 5)
	}

	raw, err := o.verifier.Verify(ctx, claim, o.topic, evidence)
	if err != nil {
		o.logger.Warn("verifier call failed", "claim_id", claim.ID, "error", err)
		return o.unverifiedRecord(claim, fmt.Sprintf("verifier error: %v", err), 0)
	}

	verdict, err := ParseVerdict(raw)
	if err != nil {
		o.logger.Warn("unparseable verdict", "claim_id", claim.ID, "error", err)
		return o.unverifiedRecord(claim, fmt.Sprintf("unparseable verdict: %v", err), 0)
	}

	if err := o.policy.Evaluate(verdict); err != nil {
		o.logger.Debug("claim rejected", "claim_id", claim.ID, "reason", err)
		return o.unverifiedRecord(claim, err.Error(), verdict.Confidence)
	}

	citation := model.VerifiedCitation{
		ID:              "cit_" + claim.ID,
		ClaimID:         claim.ID,
		SourceURL:       verdict.SourceURL,
		Confidence:      verdict.Confidence,
		SupportingQuote: verdict.SupportingQuote,
		CitationText:    CitationText(verdict.Authors.String(), verdict.SourceTitle, verdict.Year.String()),
		FullReference:   FullReference(verdict.Authors.String(), verdict.SourceTitle, verdict.Year.String(), verdict.SourceURL),
	}

	o.verified.Add(1)
	o.logger.Info("claim verified",
		"claim_id", claim.ID,
		"confidence", verdict.Confidence,
		"source", verdict.SourceURL)

	return ledger.Record{
		ClaimID:  claim.ID,
		Outcome:  ledger.OutcomeVerified,
		Citation: &citation,
	}
}

func (o *Orchestrator) unverifiedRecord(claim model.Claim, reason string, confidence float64) ledger.Record {
	o.unverified.Add(1)
	return ledger.Record{
		ClaimID: claim.ID,
		Outcome: ledger.OutcomeUnverified,
		Unverified: &model.UnverifiedClaim{
			ClaimID:    claim.ID,
			Content:    claim.Content,
			Importance: claim.Importance,
			Reason:     reason,
			Confidence: confidence,
		},
	}
}
