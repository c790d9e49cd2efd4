package dedup

import (
	"testing"

	"github.com/deusflow/meternews/internal/news"
)

func TestDeduplicate_EndToEnd(t *testing.T) {
	articles := []news.Article{
		{
			Title:       "Egypt Launches Smart Meter Rollout Program",
			URL:         "http://www.egypttimes.com/news/meters?utm_source=fb",
			FetchedFrom: news.SourceGoogleNews,
			PublishedAt: "2025-01-15",
		},
		{
			Title:       "Egypt Launches Smart Meter Rollout Program",
			URL:         "https://egypttimes.com/news/meters",
			FetchedFrom: news.SourceNewsAPI,
			PublishedAt: "2025-01-15T10:00:00Z",
		},
		{
			Title:       "Nigeria Announces New Prepaid Meter Tender",
			URL:         "https://example.com/nigeria",
			FetchedFrom: news.SourceChatGPT,
			PublishedAt: "2025-01-16T08:00:00Z",
		},
	}

	d := New(DefaultSimilarityThreshold)
	got := d.Deduplicate(articles)

	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2", len(got))
	}
	// Newest first by lexical date comparison.
	if got[0].Title != "Nigeria Announces New Prepaid Meter Tender" {
		t.Errorf("first article = %q, want the Nigeria story", got[0].Title)
	}
	// The NewsAPI copy of the Egypt story survives: priority 1 beats 2.
	if got[1].FetchedFrom != news.SourceNewsAPI {
		t.Errorf("Egypt story kept from %q, want NewsAPI", got[1].FetchedFrom)
	}
}

func TestDeduplicate_IdenticalNormalizedTitles(t *testing.T) {
	a := news.Article{
		Title:       "Kenya Power Expands Prepaid Metering!!",
		FetchedFrom: news.SourceChatGPT,
	}
	b := news.Article{
		Title:       "kenya power expands   prepaid metering",
		FetchedFrom: news.SourceGoogleNews,
	}

	got := New(DefaultSimilarityThreshold).Deduplicate([]news.Article{a, b})
	if len(got) != 1 {
		t.Fatalf("got %d articles, want 1", len(got))
	}
	// GoogleNews outranks ChatGPT, so its copy survives.
	if got[0].FetchedFrom != news.SourceGoogleNews {
		t.Errorf("survivor from %q, want GoogleNews", got[0].FetchedFrom)
	}
}

func TestDeduplicate_SamePriorityKeepsFirst(t *testing.T) {
	a := news.Article{Title: "Kenya Power Expands Prepaid Metering", Source: "First", FetchedFrom: news.SourceNewsAPI}
	b := news.Article{Title: "Kenya Power Expands Prepaid Metering.", Source: "Second", FetchedFrom: news.SourceNewsAPI}

	got := New(DefaultSimilarityThreshold).Deduplicate([]news.Article{a, b})
	if len(got) != 1 {
		t.Fatalf("got %d articles, want 1", len(got))
	}
	if got[0].Source != "First" {
		t.Errorf("survivor = %q, want the first occurrence", got[0].Source)
	}
}

func TestDeduplicate_ShortTitlesDropped(t *testing.T) {
	articles := []news.Article{
		{Title: "Too short", URL: "https://example.com/a", FetchedFrom: news.SourceNewsAPI},
		{Title: "", URL: "https://example.com/b", FetchedFrom: news.SourceNewsAPI},
		{Title: "Long enough headline about meters", FetchedFrom: news.SourceNewsAPI},
	}

	got := New(DefaultSimilarityThreshold).Deduplicate(articles)
	if len(got) != 1 {
		t.Fatalf("got %d articles, want 1", len(got))
	}
	if got[0].Title != "Long enough headline about meters" {
		t.Errorf("unexpected survivor %q", got[0].Title)
	}
}

func TestDeduplicate_EmptyInput(t *testing.T) {
	d := New(DefaultSimilarityThreshold)

	got := d.Deduplicate(nil)
	if len(got) != 0 {
		t.Fatalf("got %d articles, want 0", len(got))
	}

	stats := d.Stats()
	if stats.UniqueURLs != 0 || stats.UniqueTitles != 0 || stats.UniqueHashes != 0 {
		t.Errorf("stats after empty call = %+v, want all zero", stats)
	}
}

func TestDeduplicate_FuzzyThreshold(t *testing.T) {
	articles := []news.Article{
		{Title: "Nigeria Announces New Prepaid Meter Tender", FetchedFrom: news.SourceNewsAPI},
		{Title: "Nigeria Announces Prepaid Meter Tender Program", FetchedFrom: news.SourceNewsAPI},
	}

	if got := New(0.75).Deduplicate(articles); len(got) != 1 {
		t.Errorf("threshold 0.75: got %d articles, want 1 (fuzzy duplicate dropped)", len(got))
	}
	if got := New(0.95).Deduplicate(articles); len(got) != 2 {
		t.Errorf("threshold 0.95: got %d articles, want 2 (both kept)", len(got))
	}
}

func TestDeduplicate_ReusableAcrossBatches(t *testing.T) {
	batch := []news.Article{
		{Title: "Egypt Launches Smart Meter Rollout Program", URL: "https://egypttimes.com/news/meters", FetchedFrom: news.SourceNewsAPI, PublishedAt: "2025-01-15T10:00:00Z"},
		{Title: "Nigeria Announces New Prepaid Meter Tender", URL: "https://example.com/nigeria", FetchedFrom: news.SourceChatGPT, PublishedAt: "2025-01-16T08:00:00Z"},
	}

	d := New(DefaultSimilarityThreshold)
	first := d.Deduplicate(batch)
	second := d.Deduplicate(batch)

	if len(first) != len(second) {
		t.Fatalf("batch sizes differ across calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Title != second[i].Title {
			t.Errorf("result %d differs across calls: %q vs %q", i, first[i].Title, second[i].Title)
		}
	}
}

func TestDeduplicate_SortsByDateDescending(t *testing.T) {
	articles := []news.Article{
		{Title: "Oldest story about meter rollouts", PublishedAt: "2025-01-10T00:00:00Z", FetchedFrom: news.SourceNewsAPI},
		{Title: "Newest story about tender programs", PublishedAt: "2025-01-20T00:00:00Z", FetchedFrom: news.SourceNewsAPI},
		{Title: "Middle story about grid upgrades", PublishedAt: "2025-01-15T00:00:00Z", FetchedFrom: news.SourceNewsAPI},
	}

	got := New(DefaultSimilarityThreshold).Deduplicate(articles)
	if len(got) != 3 {
		t.Fatalf("got %d articles, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].PublishedAt < got[i].PublishedAt {
			t.Errorf("articles not sorted newest first: %q before %q", got[i-1].PublishedAt, got[i].PublishedAt)
		}
	}
}

func TestStats_ReflectsAcceptedArticles(t *testing.T) {
	articles := []news.Article{
		{Title: "Egypt Launches Smart Meter Rollout Program", URL: "https://egypttimes.com/news/meters", FetchedFrom: news.SourceNewsAPI},
		{Title: "Nigeria Announces New Prepaid Meter Tender", FetchedFrom: news.SourceChatGPT},
	}

	d := New(DefaultSimilarityThreshold)
	d.Deduplicate(articles)

	stats := d.Stats()
	if stats.UniqueURLs != 1 {
		t.Errorf("UniqueURLs = %d, want 1", stats.UniqueURLs)
	}
	if stats.UniqueTitles != 2 {
		t.Errorf("UniqueTitles = %d, want 2", stats.UniqueTitles)
	}
	if stats.UniqueHashes != 2 {
		t.Errorf("UniqueHashes = %d, want 2", stats.UniqueHashes)
	}
}
