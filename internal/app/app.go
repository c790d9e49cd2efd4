// Package app wires the fetch adapters, the dedup engine, the analysis step
// and the WhatsApp dispatcher into one aggregation run.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/deusflow/meternews/internal/config"
	"github.com/deusflow/meternews/internal/dedup"
	"github.com/deusflow/meternews/internal/fetch"
	"github.com/deusflow/meternews/internal/metrics"
	"github.com/deusflow/meternews/internal/news"
	"github.com/deusflow/meternews/internal/ratelimit"
	"github.com/deusflow/meternews/internal/retry"
	"github.com/deusflow/meternews/internal/whatsapp"
)

// Summary is the final report of one aggregation run.
type Summary struct {
	TotalFetched      int
	UniqueArticles    int
	DuplicatesRemoved int
	AlreadySent       int
	SourceCounts      map[string]int
	DeliveryStatus    string
	DeliverySent      int
}

// Run executes one full aggregation: fetch from every source, deduplicate,
// analyze, format and deliver. One failing source or recipient never stops
// the others.
func Run(ctx context.Context) (*Summary, error) {
	startTime := time.Now()
	defer func() {
		metrics.Global.RecordProcessingTime(time.Since(startTime))
		metrics.Global.SetLastRun()
	}()

	cfg, err := config.Load()
	if err != nil {
		metrics.Global.SetError(err.Error())
		return nil, err
	}

	queries, err := fetch.LoadQueries(cfg.QueriesConfigPath)
	if err != nil {
		slog.Warn("queries config not loaded, using built-in query set", "path", cfg.QueriesConfigPath, "error", err)
		queries = fetch.DefaultQueries()
	}

	store := newSentStore(cfg)
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("failed to close sent-article store", "error", err)
		}
	}()

	limiter := ratelimit.New(cfg.MaxNewsAPIRequests, cfg.MaxSerpAPIRequests, cfg.MaxOpenAIRequests)
	retryCfg := retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}

	newsAPI := fetch.NewNewsAPIFetcher(cfg.NewsAPIKey, queries.NewsAPI, cfg.RequestTimeout, retryCfg, limiter)
	googleNews := fetch.NewGoogleNewsFetcher(cfg.SerpAPIKey, queries.GoogleNews, queries.GoogleNewsCountries, cfg.RequestTimeout, retryCfg, limiter)
	chatGPT := fetch.NewChatGPTFetcher(cfg.OpenAIKey, cfg.OpenAIModel, limiter)

	slog.Info("starting news aggregation", "days_back", cfg.DaysBack, "similarity_threshold", cfg.SimilarityThreshold)

	// Fetch from all sources; each adapter isolates its own failures.
	var allArticles []news.Article
	for _, source := range []struct {
		name    string
		fetcher fetch.Fetcher
	}{
		{news.SourceNewsAPI, newsAPI},
		{news.SourceGoogleNews, googleNews},
		{news.SourceChatGPT, chatGPT},
	} {
		articles := source.fetcher.FetchNews(ctx, cfg.DaysBack)
		slog.Info("source fetched", "source", source.name, "articles", len(articles))
		metrics.Global.AddArticlesFetched(source.name, len(articles))
		allArticles = append(allArticles, articles...)
	}

	slog.Info("articles collected", "total", len(allArticles))

	// Deduplicate across sources.
	deduplicator := dedup.New(cfg.SimilarityThreshold)
	uniqueArticles := deduplicator.Deduplicate(allArticles)
	stats := deduplicator.Stats()
	metrics.Global.SetUniqueArticles(len(uniqueArticles))

	slog.Info("deduplication finished",
		"unique", len(uniqueArticles),
		"removed", len(allArticles)-len(uniqueArticles),
		"unique_urls", stats.UniqueURLs,
		"unique_titles", stats.UniqueTitles,
		"unique_hashes", stats.UniqueHashes,
	)

	// Drop stories delivered in previous runs.
	fresh := make([]news.Article, 0, len(uniqueArticles))
	alreadySent := 0
	for _, a := range uniqueArticles {
		if store.IsAlreadySent(store.GenerateArticleHash(a.Title, a.URL)) {
			alreadySent++
			continue
		}
		fresh = append(fresh, a)
	}
	if alreadySent > 0 {
		slog.Info("skipping articles sent in previous runs", "count", alreadySent)
	}

	// AI analysis over the final batch.
	analysis := ""
	if len(fresh) > 0 {
		analysis = chatGPT.EnhanceArticles(ctx, fresh)
		if analysis != "" {
			metrics.Global.IncrementAnalysisGenerated()
			slog.Info("analysis generated", "chars", len(analysis))
		} else {
			slog.Info("no analysis generated")
		}
	}

	// Format and deliver.
	sender := whatsapp.NewSender(
		cfg.TwilioAccountSID,
		cfg.TwilioAuthToken,
		cfg.TwilioWhatsAppNumber,
		cfg.WhatsAppRecipients,
		cfg.MaxCharsPerMessage,
	)
	message := sender.FormatMessage(fresh, analysis)
	slog.Info("message formatted", "chars", len(message))

	result := sender.Send(message)
	switch result.Status {
	case whatsapp.StatusSkipped:
		slog.Warn("delivery skipped", "reason", result.Reason)
	case whatsapp.StatusPartialFail:
		slog.Warn("delivery partially failed", "sent", result.Sent, "details", len(result.Details))
		metrics.Global.SetError("partial delivery failure")
	default:
		slog.Info("delivery completed", "sent", result.Sent)
	}

	// Remember what went out so the next run doesn't repeat it.
	if result.Status == whatsapp.StatusOK {
		for _, a := range fresh {
			hash := store.GenerateArticleHash(a.Title, a.URL)
			if err := store.MarkAsSent(hash, a.Title, a.URL, a.Source, a.FetchedFrom); err != nil {
				slog.Warn("failed to record sent article", "title", a.Title, "error", err)
			}
		}
	}

	summary := &Summary{
		TotalFetched:      len(allArticles),
		UniqueArticles:    len(uniqueArticles),
		DuplicatesRemoved: len(allArticles) - len(uniqueArticles),
		AlreadySent:       alreadySent,
		SourceCounts:      countBySource(fresh),
		DeliveryStatus:    result.Status,
		DeliverySent:      result.Sent,
	}

	slog.Info("run finished",
		"total_fetched", summary.TotalFetched,
		"unique", summary.UniqueArticles,
		"duplicates_removed", summary.DuplicatesRemoved,
		"already_sent", summary.AlreadySent,
		"newsapi", summary.SourceCounts[news.SourceNewsAPI],
		"google_news", summary.SourceCounts[news.SourceGoogleNews],
		"chatgpt", summary.SourceCounts[news.SourceChatGPT],
		"delivery_status", summary.DeliveryStatus,
	)

	return summary, nil
}

func countBySource(articles []news.Article) map[string]int {
	counts := make(map[string]int)
	for _, a := range articles {
		counts[a.FetchedFrom]++
	}
	return counts
}
