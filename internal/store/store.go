// Package store persists sources and passages in Weaviate and serves
// hybrid (keyword + vector) retrieval of evidence by claim text.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	wmodels "github.com/weaviate/weaviate/entities/models"

	"github.com/veridoc/citepipe/internal/model"
)

// RankedPassage is a retrieved passage with its hybrid search score.
type RankedPassage struct {
	Passage model.Passage
	Score   float64
}

// Store is the Weaviate-backed evidence store with an in-process
// id-keyed cache in front of source lookups.
type Store struct {
	client    *weaviate.Client
	className string
	srcCache  *gocache.Cache
	logger    *slog.Logger
}

// New connects to Weaviate. Schema creation is separate (EnsureSchema)
// so read-only commands never mutate the server.
func New(cfg model.StoreConfig, logger *slog.Logger) (*Store, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("evidence store host not configured")
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "http"
	}

	client, err := weaviate.NewClient(weaviate.Config{Host: cfg.Host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	className := cfg.ClassName
	if className == "" {
		className = "EvidencePassage"
	}

	return &Store{
		client:    client,
		className: className,
		srcCache:  gocache.New(time.Hour, 10*time.Minute),
		logger:    logger,
	}, nil
}

// EnsureSchema creates the passage and source classes if they do not
// exist. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, class := range []*wmodels.Class{s.passageClass(), s.sourceClass()} {
		exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(class.Class).Do(ctx)
		if err != nil {
			return fmt.Errorf("check class %s: %w", class.Class, err)
		}
		if exists {
			continue
		}
		if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
			return fmt.Errorf("create class %s: %w", class.Class, err)
		}
	}
	return nil
}

func (s *Store) passageClass() *wmodels.Class {
	return &wmodels.Class{
		Class:       s.className,
		Description: "Chunked passages of acquired source documents",
		Properties: []*wmodels.Property{
			{Name: "passageId", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "sourceId", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "text", DataType: []string{"text"}, Tokenization: "word"},
			{Name: "page", DataType: []string{"int"}},
			{Name: "startWord", DataType: []string{"int"}},
			{Name: "endWord", DataType: []string{"int"}},
		},
	}
}

func (s *Store) sourceClass() *wmodels.Class {
	return &wmodels.Class{
		Class:       s.className + "Source",
		Description: "Discovered source documents backing the passages",
		Properties: []*wmodels.Property{
			{Name: "sourceId", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "record", DataType: []string{"text"}},
		},
	}
}

// AddSources persists source records. Writes are best-effort: a failed
// insert is logged and skipped, never aborting the batch.
func (s *Store) AddSources(ctx context.Context, sources []model.Source) {
	if len(sources) == 0 {
		return
	}

	objects := make([]*wmodels.Object, 0, len(sources))
	for _, src := range sources {
		s.srcCache.Set(src.ID, src, gocache.DefaultExpiration)

		record, err := json.Marshal(src)
		if err != nil {
			s.logger.Warn("marshal source failed", "source", src.ID, "error", err)
			continue
		}
		objects = append(objects, &wmodels.Object{
			Class: s.className + "Source",
			ID:    deterministicUUID(src.ID),
			Properties: map[string]interface{}{
				"sourceId": src.ID,
				"record":   string(record),
			},
		})
	}

	s.batchInsert(ctx, objects, "sources")
}

// AddPassages indexes passages for retrieval. Best-effort, like
// AddSources.
func (s *Store) AddPassages(ctx context.Context, passages []model.Passage) {
	if len(passages) == 0 {
		return
	}

	objects := make([]*wmodels.Object, 0, len(passages))
	for _, p := range passages {
		objects = append(objects, &wmodels.Object{
			Class: s.className,
			ID:    deterministicUUID(p.ID),
			Properties: map[string]interface{}{
				"passageId": p.ID,
				"sourceId":  p.SourceID,
				"text":      p.Text,
				"page":      p.Page,
				"startWord": p.StartWord,
				"endWord":   p.EndWord,
			},
		})
	}

	s.batchInsert(ctx, objects, "passages")
}

func (s *Store) batchInsert(ctx context.Context, objects []*wmodels.Object, kind string) {
	if len(objects) == 0 {
		return
	}
	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		s.logger.Warn("batch insert failed", "kind", kind, "count", len(objects), "error", err)
		return
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			s.logger.Warn("object insert failed", "kind", kind, "error", obj.Result.Errors.Error[0].Message)
		}
	}
}

// FindPassages runs a hybrid search for passages relevant to the claim
// text, returning at most k results with score >= threshold. An empty
// corpus or a failed search yields an empty slice, never an error.
func (s *Store) FindPassages(ctx context.Context, claimText string, k int, threshold float64) []RankedPassage {
	if claimText == "" || k <= 0 {
		return nil
	}

	fields := []graphql.Field{
		{Name: "passageId"},
		{Name: "sourceId"},
		{Name: "text"},
		{Name: "page"},
		{Name: "startWord"},
		{Name: "endWord"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "score"}}},
	}

	hybrid := s.client.GraphQL().HybridArgumentBuilder().
		WithQuery(claimText).
		WithAlpha(0.5)

	result, err := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(fields...).
		WithHybrid(hybrid).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		s.logger.Warn("passage search failed", "error", err)
		return nil
	}
	if len(result.Errors) > 0 {
		s.logger.Warn("passage search error", "error", result.Errors[0].Message)
		return nil
	}

	return parseRanked(result.Data, s.className, threshold)
}

// parseRanked decodes the GraphQL response into ranked passages.
func parseRanked(data map[string]wmodels.JSONObject, className string, threshold float64) []RankedPassage {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := get[className].([]interface{})
	if !ok {
		return nil
	}

	ranked := make([]RankedPassage, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		score := extractScore(m)
		if score < threshold {
			continue
		}
		ranked = append(ranked, RankedPassage{
			Score: score,
			Passage: model.Passage{
				ID:        getString(m, "passageId"),
				SourceID:  getString(m, "sourceId"),
				Text:      getString(m, "text"),
				Page:      getInt(m, "page"),
				StartWord: getInt(m, "startWord"),
				EndWord:   getInt(m, "endWord"),
			},
		})
	}
	return ranked
}

// GetSource returns a source by id, hitting the in-process cache first
// and falling back to the store.
func (s *Store) GetSource(ctx context.Context, id string) (model.Source, bool) {
	if v, found := s.srcCache.Get(id); found {
		return v.(model.Source), true
	}

	where := filters.Where().
		WithPath([]string{"sourceId"}).
		WithOperator(filters.Equal).
		WithValueString(id)

	result, err := s.client.GraphQL().Get().
		WithClassName(s.className + "Source").
		WithFields(graphql.Field{Name: "record"}).
		WithWhere(where).
		WithLimit(1).
		Do(ctx)
	if err != nil || len(result.Errors) > 0 {
		return model.Source{}, false
	}

	get, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return model.Source{}, false
	}
	objects, ok := get[s.className+"Source"].([]interface{})
	if !ok || len(objects) == 0 {
		return model.Source{}, false
	}
	m, ok := objects[0].(map[string]interface{})
	if !ok {
		return model.Source{}, false
	}

	var src model.Source
	if err := json.Unmarshal([]byte(getString(m, "record")), &src); err != nil {
		return model.Source{}, false
	}
	s.srcCache.Set(id, src, gocache.DefaultExpiration)
	return src, true
}

// deterministicUUID maps an application id onto a stable Weaviate
// object UUID so re-indexing updates instead of duplicating.
func deterministicUUID(id string) strfmt.UUID {
	hash := sha256.Sum256([]byte(id))
	u, _ := uuid.FromBytes(hash[:16])
	return strfmt.UUID(u.String())
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}

// extractScore pulls the hybrid score out of _additional. Weaviate
// returns it as a string.
func extractScore(m map[string]interface{}) float64 {
	additional, ok := m["_additional"].(map[string]interface{})
	if !ok {
		return 0
	}
	switch v := additional["score"].(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	case float64:
		return v
	default:
		return 0
	}
}
