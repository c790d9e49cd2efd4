package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deusflow/meternews/internal/news"
	"github.com/deusflow/meternews/internal/retry"
)

func testRetry() retry.Config {
	return retry.Config{MaxAttempts: 2, Delay: time.Millisecond}
}

func TestNewsAPIFetcher_MapsArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("language"); got != "en" {
			t.Errorf("language = %q, want en", got)
		}
		if got := r.URL.Query().Get("apiKey"); got != "test-key" {
			t.Errorf("apiKey = %q, want test-key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{
					"title": "Egypt Launches Smart Meter Rollout Program",
					"description": "A nationwide rollout begins.",
					"url": "https://egypttimes.com/news/meters",
					"publishedAt": "2025-01-15T10:00:00Z",
					"content": "Full text here.",
					"source": {"name": "Egypt Times"}
				},
				{
					"title": "[Removed]",
					"url": "https://example.com/removed"
				},
				{
					"title": "",
					"url": "https://example.com/untitled"
				},
				{
					"title": "Egypt Launches Smart Meter Rollout Program",
					"url": "https://egypttimes.com/news/meters"
				}
			]
		}`))
	}))
	defer server.Close()

	f := NewNewsAPIFetcher("test-key", []string{"smart meter Africa"}, 5*time.Second, testRetry(), nil)
	f.baseURL = server.URL

	got := f.FetchNews(context.Background(), 2)
	if len(got) != 1 {
		t.Fatalf("got %d articles, want 1", len(got))
	}

	a := got[0]
	if a.Title != "Egypt Launches Smart Meter Rollout Program" {
		t.Errorf("title = %q", a.Title)
	}
	if a.Source != "Egypt Times" {
		t.Errorf("source = %q, want Egypt Times", a.Source)
	}
	if a.FetchedFrom != news.SourceNewsAPI {
		t.Errorf("fetchedFrom = %q, want NewsAPI", a.FetchedFrom)
	}
	if a.PublishedAt != "2025-01-15T10:00:00Z" {
		t.Errorf("publishedAt = %q", a.PublishedAt)
	}
}

func TestNewsAPIFetcher_StopsOnAuthFailure(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	f := NewNewsAPIFetcher("bad-key", []string{"q1", "q2", "q3"}, 5*time.Second, testRetry(), nil)
	f.baseURL = server.URL

	got := f.FetchNews(context.Background(), 2)
	if len(got) != 0 {
		t.Errorf("got %d articles, want 0", len(got))
	}
	if requests != 1 {
		t.Errorf("made %d requests after auth failure, want 1", requests)
	}
}

func TestNewsAPIFetcher_NoKeyReturnsNothing(t *testing.T) {
	f := NewNewsAPIFetcher("", []string{"q"}, time.Second, testRetry(), nil)
	if got := f.FetchNews(context.Background(), 2); len(got) != 0 {
		t.Errorf("got %d articles without an API key, want 0", len(got))
	}
}
