// Package ledger provides crash-safe incremental persistence for
// verification outcomes: an append-only JSONL ledger with periodic
// snapshot compaction. A crash mid-run loses at most the in-flight
// verifications; everything recorded is replayable.
package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/veridoc/citepipe/internal/model"
)

const (
	ledgerFile     = "ledger.jsonl"
	verifiedFile   = "verified_citations.json"
	unverifiedFile = "unverified_claims.json"

	// compactEvery bounds ledger growth: after this many appended
	// records the snapshots are rewritten and the ledger truncated.
	compactEvery = 25
)

// Outcome is the terminal state of one claim's verification.
type Outcome string

const (
	OutcomeVerified   Outcome = "verified"
	OutcomeUnverified Outcome = "unverified"
)

// Record is one completed verification, the unit of appending.
type Record struct {
	ClaimID    string                  `json:"claim_id"`
	Outcome    Outcome                 `json:"outcome"`
	Citation   *model.VerifiedCitation `json:"citation,omitempty"`
	Unverified *model.UnverifiedClaim  `json:"unverified,omitempty"`
	At         time.Time               `json:"at"`
}

// Ledger owns the persistence directory. All writes are serialized
// behind its mutex; callers must not hold the lock across their own
// network calls (Record acquires it internally, only for the write).
type Ledger struct {
	dir string

	mu         sync.Mutex
	verified   map[string]model.VerifiedCitation
	unverified map[string]model.UnverifiedClaim
	appended   int
}

// Open creates the persistence directory if needed and loads prior
// state: last snapshots first, then replay of any ledger records
// appended after them.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	l := &Ledger{
		dir:        dir,
		verified:   make(map[string]model.VerifiedCitation),
		unverified: make(map[string]model.UnverifiedClaim),
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) load() error {
	var citations []model.VerifiedCitation
	if err := readJSON(filepath.Join(l.dir, verifiedFile), &citations); err != nil {
		return err
	}
	for _, c := range citations {
		l.verified[c.ClaimID] = c
	}

	var unverified []model.UnverifiedClaim
	if err := readJSON(filepath.Join(l.dir, unverifiedFile), &unverified); err != nil {
		return err
	}
	for _, u := range unverified {
		l.unverified[u.ClaimID] = u
	}

	// Replay ledger records over the snapshots. Later records win, and
	// a verified outcome supersedes an earlier unverified one.
	f, err := os.Open(filepath.Join(l.dir, ledgerFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			// A torn tail write from a crash; everything before it is
			// intact, so stop replaying here.
			break
		}
		l.apply(rec)
	}
	return scanner.Err()
}

func (l *Ledger) apply(rec Record) {
	switch rec.Outcome {
	case OutcomeVerified:
		if rec.Citation != nil {
			l.verified[rec.ClaimID] = *rec.Citation
			delete(l.unverified, rec.ClaimID)
		}
	case OutcomeUnverified:
		if _, wasVerified := l.verified[rec.ClaimID]; wasVerified {
			return
		}
		if rec.Unverified != nil {
			l.unverified[rec.ClaimID] = *rec.Unverified
		}
	}
}

// Record appends one completed verification and folds it into the
// accumulated sets. Every compactEvery appends the snapshots are
// rewritten and the ledger truncated.
func (l *Ledger) Record(rec Record) error {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.apply(rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(l.dir, ledgerFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	_, writeErr := f.Write(append(data, '\n'))
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("append record: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close ledger: %w", closeErr)
	}

	l.appended++
	if l.appended >= compactEvery {
		return l.compactLocked()
	}
	return nil
}

// Compact rewrites the snapshots from the accumulated sets and
// truncates the ledger. Called at end of run.
func (l *Ledger) Compact() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.compactLocked()
}

func (l *Ledger) compactLocked() error {
	if err := writeJSON(filepath.Join(l.dir, verifiedFile), l.verifiedLocked()); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(l.dir, unverifiedFile), l.unverifiedLocked()); err != nil {
		return err
	}
	if err := os.Truncate(filepath.Join(l.dir, ledgerFile), 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("truncate ledger: %w", err)
	}
	l.appended = 0
	return nil
}

// Verified returns the accumulated verified citations, sorted by claim
// id for deterministic output.
func (l *Ledger) Verified() []model.VerifiedCitation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verifiedLocked()
}

// Unverified returns the accumulated unverified claims, sorted by
// claim id.
func (l *Ledger) Unverified() []model.UnverifiedClaim {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unverifiedLocked()
}

// IsVerified reports whether a claim already has an accepted citation
// from a previous run.
func (l *Ledger) IsVerified(claimID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.verified[claimID]
	return ok
}

func (l *Ledger) verifiedLocked() []model.VerifiedCitation {
	out := make([]model.VerifiedCitation, 0, len(l.verified))
	for _, c := range l.verified {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimID < out[j].ClaimID })
	return out
}

func (l *Ledger) unverifiedLocked() []model.UnverifiedClaim {
	out := make([]model.UnverifiedClaim, 0, len(l.unverified))
	for _, u := range l.unverified {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimID < out[j].ClaimID })
	return out
}

// readJSON loads a JSON array file into dst, treating a missing file
// as empty.
func readJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON writes a JSON array atomically via temp file and rename.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit %s: %w", filepath.Base(path), err)
	}
	return nil
}
