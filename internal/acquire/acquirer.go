package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/veridoc/citepipe/internal/cache"
	"github.com/veridoc/citepipe/internal/chunk"
	"github.com/veridoc/citepipe/internal/model"
	"github.com/veridoc/citepipe/internal/util"
	"github.com/veridoc/citepipe/internal/worker"
)

// Acquirer turns a discovered source into passages: download, text
// extraction (PDF or HTML), then chunking. Every failure mode short of
// programmer error degrades to "no passages" — a source that cannot be
// acquired is dropped, never fatal.
type Acquirer struct {
	fetcher *Fetcher
	chunker *chunk.Chunker
	cache   cache.Cache
	robots  *util.RobotsChecker
	limiter *worker.Limiter
	docDir  string
	logger  *slog.Logger
}

// cachedDoc is the cache payload for one acquired source.
type cachedDoc struct {
	LocalPath string          `json:"local_path"`
	Title     string          `json:"title,omitempty"`
	Passages  []model.Passage `json:"passages"`
}

// NewAcquirer wires an Acquirer from configuration. The cache may be
// nil (caching disabled); robots checking follows cfg.HTTP.
func NewAcquirer(cfg *model.Config, docCache cache.Cache, logger *slog.Logger) *Acquirer {
	var robots *util.RobotsChecker
	if cfg.HTTP.RespectRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	return &Acquirer{
		fetcher: NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
			cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		chunker: chunk.New(chunk.DefaultChunkSizeWords, chunk.DefaultOverlapWords),
		cache:   docCache,
		robots:  robots,
		limiter: worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		docDir:  filepath.Join(cfg.Cache.Dir, "docs"),
		logger:  logger,
	}
}

// Acquire downloads and chunks one source, returning its passages. The
// result is empty on any acquisition failure. A cached source is served
// without touching the network, which makes reacquisition idempotent:
// no duplicate download, no duplicate passage ids.
func (a *Acquirer) Acquire(ctx context.Context, src *model.Source) []model.Passage {
	if src.ID == "" || src.URL == "" {
		return nil
	}

	if a.cache != nil {
		if data, found := a.cache.Get(cache.Key(src.ID)); found {
			var doc cachedDoc
			if err := json.Unmarshal(data, &doc); err == nil {
				a.enrich(src, &doc)
				return doc.Passages
			}
		}
	}

	if a.robots != nil {
		allowed, delay, err := a.robots.CanFetch(ctx, src.URL)
		if err == nil && !allowed {
			a.logger.Warn("robots.txt disallows source", "url", src.URL)
			return nil
		}
		if err := a.limiter.WaitWithDelay(ctx, src.URL, delay); err != nil {
			return nil
		}
	} else if err := a.limiter.Wait(ctx, src.URL); err != nil {
		return nil
	}

	dl, err := a.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		a.logger.Warn("source download failed", "url", src.URL, "error", err)
		return nil
	}

	doc := a.extract(src, dl)
	if doc == nil {
		return nil
	}

	if a.cache != nil {
		if data, err := json.Marshal(doc); err == nil {
			if err := a.cache.Set(cache.Key(src.ID), data, 0); err != nil {
				a.logger.Warn("cache write failed", "source", src.ID, "error", err)
			}
		}
	}

	a.enrich(src, doc)
	return doc.Passages
}

// extract routes the download to the right text extractor and chunks
// the result into passages with ids sequential across pages.
func (a *Acquirer) extract(src *model.Source, dl *Download) *cachedDoc {
	doc := &cachedDoc{}

	var pages []string
	if isPDF(dl) {
		extracted, err := extractPDF(dl.Body)
		if err != nil {
			a.logger.Warn("pdf extraction failed", "url", src.URL, "error", err)
			return nil
		}
		pages = extracted
		doc.LocalPath = a.saveDocument(src.ID, ".pdf", dl.Body)
	} else {
		title, text, err := extractHTML(dl.Body)
		if err != nil || text == "" {
			a.logger.Warn("html extraction yielded no text", "url", src.URL, "error", err)
			return nil
		}
		doc.Title = title
		pages = []string{text}
		doc.LocalPath = a.saveDocument(src.ID, ".html", dl.Body)
	}

	idx := 0
	for pageNr, pageText := range pages {
		for _, ch := range a.chunker.Split(pageText, pageNr+1) {
			doc.Passages = append(doc.Passages, model.Passage{
				ID:        fmt.Sprintf("%s_c%d", src.ID, idx),
				SourceID:  src.ID,
				Text:      ch.Text,
				Page:      ch.Page,
				StartWord: ch.Start,
				EndWord:   ch.End,
			})
			idx++
		}
	}

	if len(doc.Passages) == 0 {
		a.logger.Warn("no text extracted", "url", src.URL)
		return nil
	}
	return doc
}

// enrich copies acquisition metadata back onto the source record.
func (a *Acquirer) enrich(src *model.Source, doc *cachedDoc) {
	if doc.LocalPath != "" {
		src.LocalPath = doc.LocalPath
	}
	if src.Title == "" && doc.Title != "" {
		src.Title = doc.Title
	}
}

// saveDocument writes the raw downloaded body next to the cache so the
// source record can carry a local file path. Best-effort.
func (a *Acquirer) saveDocument(sourceID, ext string, body []byte) string {
	if err := os.MkdirAll(a.docDir, 0o755); err != nil {
		return ""
	}
	path := filepath.Join(a.docDir, sourceID+ext)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		a.logger.Warn("save document failed", "source", sourceID, "error", err)
		return ""
	}
	return path
}

// isPDF sniffs whether a download is a PDF by content type, URL suffix,
// or magic bytes.
func isPDF(dl *Download) bool {
	if strings.Contains(strings.ToLower(dl.ContentType), "pdf") {
		return true
	}
	if strings.HasSuffix(strings.ToLower(dl.FinalURL), ".pdf") {
		return true
	}
	return len(dl.Body) >= 5 && string(dl.Body[:5]) == "%PDF-"
}
