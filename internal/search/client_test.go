package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veridoc/citepipe/internal/model"
)

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		url  string
		want model.SourceType
	}{
		{"https://arxiv.org/abs/1706.03762", model.SourceTypePaper},
		{"https://doi.org/10.1000/xyz", model.SourceTypePaper},
		{"https://example.com/whitepaper.pdf", model.SourceTypePaper},
		{"https://docs.python.org/3/library/json.html", model.SourceTypeDocumentation},
		{"https://gorm.readthedocs.io/en/latest/", model.SourceTypeDocumentation},
		{"https://pkg.go.dev/net/http", model.SourceTypeDocumentation},
		{"https://blog.example.com/post", model.SourceTypeWebsite},
		{"not a url at all", model.SourceTypeWebsite},
	}
	for _, tt := range tests {
		if got := ClassifyURL(tt.url); got != tt.want {
			t.Errorf("ClassifyURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSearch_ParsesHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "transformer attention" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		fmt.Fprint(w, `{"results":[{"url":"https://arxiv.org/abs/1706.03762","title":"Attention Is All You Need","authors":"Vaswani, A.","date":"2017-06-12"}]}`)
	}))
	defer srv.Close()

	c := NewClient(model.SearchConfig{BaseURL: srv.URL, APIKey: "test-key", MaxResults: 5}, 5*time.Second)
	hits, err := c.Search(context.Background(), "transformer attention")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Title != "Attention Is All You Need" {
		t.Errorf("unexpected title %q", hits[0].Title)
	}
}

func TestSearch_DisabledWithoutBaseURL(t *testing.T) {
	c := NewClient(model.SearchConfig{}, time.Second)
	if c.Enabled() {
		t.Error("expected client disabled without base URL")
	}
	hits, err := c.Search(context.Background(), "anything")
	if err != nil || hits != nil {
		t.Errorf("expected nil, nil from disabled client, got %v, %v", hits, err)
	}
}

func TestSearch_HTTPErrorReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(model.SearchConfig{BaseURL: srv.URL}, time.Second)
	if _, err := c.Search(context.Background(), "q"); err == nil {
		t.Error("expected error on 503")
	}
}
