package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deusflow/meternews/internal/news"
	"github.com/deusflow/meternews/internal/ratelimit"
	"github.com/deusflow/meternews/internal/retry"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPIFetcher pulls electricity-meter coverage from NewsAPI.org.
type NewsAPIFetcher struct {
	apiKey  string
	baseURL string
	queries []string
	client  *http.Client
	retry   retry.Config
	limiter *ratelimit.Limiter
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// NewNewsAPIFetcher builds the adapter. An empty apiKey is allowed; the
// adapter then reports zero articles.
func NewNewsAPIFetcher(apiKey string, queries []string, timeout time.Duration, retryCfg retry.Config, limiter *ratelimit.Limiter) *NewsAPIFetcher {
	return &NewsAPIFetcher{
		apiKey:  apiKey,
		baseURL: newsAPIBaseURL,
		queries: queries,
		client:  &http.Client{Timeout: timeout},
		retry:   retryCfg,
		limiter: limiter,
	}
}

// FetchNews runs every configured query against the /everything endpoint
// and collects the union of results, deduplicating identical URLs within
// its own result set. Upstream failures are logged, never returned.
func (f *NewsAPIFetcher) FetchNews(ctx context.Context, daysBack int) []news.Article {
	if f.apiKey == "" {
		slog.Warn("NEWSAPI_KEY not set, skipping NewsAPI")
		return nil
	}

	today := time.Now()
	fromDate := today.AddDate(0, 0, -daysBack).Format("2006-01-02")
	toDate := today.Format("2006-01-02")

	var articles []news.Article
	seenURLs := map[string]struct{}{}

	for _, query := range f.queries {
		if f.limiter != nil && !f.limiter.Allow(ratelimit.ProviderNewsAPI) {
			break
		}

		resp, status, err := f.search(ctx, query, fromDate, toDate)
		if err != nil {
			slog.Warn("NewsAPI request failed", "query", query, "error", err)
			continue
		}

		switch {
		case status == http.StatusOK:
			for _, a := range resp.Articles {
				if a.URL == "" {
					continue
				}
				if _, dup := seenURLs[a.URL]; dup {
					continue
				}
				if std, ok := f.standardize(a); ok {
					articles = append(articles, std)
					seenURLs[a.URL] = struct{}{}
				}
			}
		case status == http.StatusUnauthorized:
			slog.Error("NewsAPI authentication failed, check API key")
			return articles
		case status == http.StatusTooManyRequests:
			slog.Warn("NewsAPI rate limit reached")
			return articles
		default:
			slog.Warn("NewsAPI error", "query", query, "status", status)
		}
	}

	return articles
}

func (f *NewsAPIFetcher) search(ctx context.Context, query, fromDate, toDate string) (*newsAPIResponse, int, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("from", fromDate)
	params.Set("to", toDate)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(20))
	params.Set("apiKey", f.apiKey)

	var parsed newsAPIResponse
	status := 0

	// Transport failures are retried; non-200 responses are not, the caller
	// decides what each status means.
	err := retry.WithRetry(ctx, f.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if resp.StatusCode != http.StatusOK {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(&parsed)
	})
	if err != nil {
		return nil, status, err
	}
	if status != http.StatusOK {
		return nil, status, nil
	}
	return &parsed, status, nil
}

// standardize maps a NewsAPI record onto the Article shape. Records with
// no title, or whose content NewsAPI has redacted, are skipped.
func (f *NewsAPIFetcher) standardize(a newsAPIArticle) (news.Article, bool) {
	title := trimmed(a.Title)
	if title == "" || title == "[Removed]" {
		return news.Article{}, false
	}

	source := a.Source.Name
	if source == "" {
		source = "Unknown"
	}

	return news.Article{
		Title:       title,
		Description: trimmed(a.Description),
		URL:         trimmed(a.URL),
		Source:      source,
		PublishedAt: a.PublishedAt,
		FetchedFrom: news.SourceNewsAPI,
		Content:     a.Content,
	}, true
}
