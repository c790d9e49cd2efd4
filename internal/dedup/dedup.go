// Package dedup removes duplicate stories from a combined multi-source
// article batch. An article's identity is the conjunction of four
// independent signals: normalized URL, normalized title, content
// fingerprint and a fuzzy title match against everything already accepted.
// Any single hit classifies the article as a duplicate.
package dedup

import (
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/deusflow/meternews/internal/metrics"
	"github.com/deusflow/meternews/internal/news"
)

// minTitleLen is the shortest raw title (in runes) eligible for uniqueness
// checks at all; anything shorter is dropped outright.
const minTitleLen = 10

// Deduplicator turns a raw batch of articles into a deduplicated,
// date-sorted batch. Session state lives for one Deduplicate call and is
// reset at the next, so a single instance can serve independent batches.
// Not safe for concurrent use.
type Deduplicator struct {
	matcher *Matcher

	seenURLs   map[string]struct{}
	seenTitles map[string]struct{}
	seenHashes map[string]struct{}
	titleList  []string // acceptance order, for fuzzy comparison
}

// Stats summarizes the session state left behind by the most recent
// Deduplicate call.
type Stats struct {
	UniqueURLs   int
	UniqueTitles int
	UniqueHashes int
}

// New builds a Deduplicator with the given fuzzy similarity threshold.
func New(similarityThreshold float64) *Deduplicator {
	d := &Deduplicator{matcher: NewMatcher(similarityThreshold)}
	d.reset()
	return d
}

func (d *Deduplicator) reset() {
	d.seenURLs = make(map[string]struct{})
	d.seenTitles = make(map[string]struct{})
	d.seenHashes = make(map[string]struct{})
	d.titleList = nil
}

// Deduplicate removes duplicate articles from the batch. Higher-priority
// sources are processed first, so when two sources report the same story
// the more trusted copy survives. The result is stable-sorted by the raw
// PublishedAt string, newest first. Never panics on malformed input;
// missing fields degrade to "no signal".
func (d *Deduplicator) Deduplicate(articles []news.Article) []news.Article {
	if len(articles) == 0 {
		return []news.Article{}
	}

	d.reset()

	sorted := make([]news.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return news.SourcePriority(sorted[i].FetchedFrom) < news.SourcePriority(sorted[j].FetchedFrom)
	})

	unique := make([]news.Article, 0, len(sorted))
	for _, a := range sorted {
		if !d.isUnique(a) {
			slog.Debug("duplicate dropped", "title", a.Title, "fetched_from", a.FetchedFrom)
			metrics.Global.IncrementDuplicatesFiltered()
			continue
		}
		unique = append(unique, a)
		d.markSeen(a)
	}

	// Lexical comparison on the raw date string: ISO-8601 values sort
	// correctly, anything else sorts as plain text.
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].PublishedAt > unique[j].PublishedAt
	})

	return unique
}

// isUnique runs the short-circuiting uniqueness chain against session state.
func (d *Deduplicator) isUnique(a news.Article) bool {
	if a.Title == "" || utf8.RuneCountInString(a.Title) < minTitleLen {
		return false
	}

	if a.URL != "" {
		if normalizedURL := NormalizeURL(a.URL); normalizedURL != "" {
			if _, dup := d.seenURLs[normalizedURL]; dup {
				return false
			}
		}
	}

	if normalizedTitle := NormalizeText(a.Title); normalizedTitle != "" {
		if _, dup := d.seenTitles[normalizedTitle]; dup {
			return false
		}
	}

	if _, dup := d.seenHashes[Fingerprint(a.Title, a.Description)]; dup {
		return false
	}

	return !d.matcher.HasSimilar(NormalizeText(a.Title), d.titleList)
}

// markSeen records an accepted article's identity signals.
func (d *Deduplicator) markSeen(a news.Article) {
	if a.URL != "" {
		if normalizedURL := NormalizeURL(a.URL); normalizedURL != "" {
			d.seenURLs[normalizedURL] = struct{}{}
		}
	}

	if normalizedTitle := NormalizeText(a.Title); normalizedTitle != "" {
		d.seenTitles[normalizedTitle] = struct{}{}
		d.titleList = append(d.titleList, normalizedTitle)
	}

	// Fingerprinting tolerates empty fields, so the hash is always recorded.
	d.seenHashes[Fingerprint(a.Title, a.Description)] = struct{}{}
}

// Stats returns the cardinalities of the three session sets, valid relative
// to the most recent Deduplicate call.
func (d *Deduplicator) Stats() Stats {
	return Stats{
		UniqueURLs:   len(d.seenURLs),
		UniqueTitles: len(d.seenTitles),
		UniqueHashes: len(d.seenHashes),
	}
}
