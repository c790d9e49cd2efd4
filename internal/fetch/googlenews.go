package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/meternews/internal/news"
	"github.com/deusflow/meternews/internal/ratelimit"
	"github.com/deusflow/meternews/internal/retry"
)

const serpAPIBaseURL = "https://serpapi.com/search"

// maxCountryTargets bounds how many market configs each query fans out to,
// to stay inside SerpAPI free-tier limits.
const maxCountryTargets = 3

// GoogleNewsFetcher pulls Google News results, through SerpAPI when a key
// is configured and through the public Google News RSS search feed
// otherwise. Both paths tag articles as GoogleNews.
type GoogleNewsFetcher struct {
	apiKey    string
	baseURL   string
	queries   []string
	countries []CountryTarget
	client    *http.Client
	parser    *gofeed.Parser
	retry     retry.Config
	limiter   *ratelimit.Limiter
}

type serpAPIResponse struct {
	NewsResults []serpAPIArticle `json:"news_results"`
}

type serpAPIArticle struct {
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	Link    string     `json:"link"`
	Date    string     `json:"date"`
	Source  serpSource `json:"source"`
}

// serpSource tolerates both shapes SerpAPI uses for the source field:
// an object with a name, or a bare string.
type serpSource struct {
	Name string
}

func (s *serpSource) UnmarshalJSON(data []byte) error {
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Name != "" {
		s.Name = obj.Name
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Name = str
		return nil
	}
	s.Name = "Unknown"
	return nil
}

func NewGoogleNewsFetcher(apiKey string, queries []string, countries []CountryTarget, timeout time.Duration, retryCfg retry.Config, limiter *ratelimit.Limiter) *GoogleNewsFetcher {
	return &GoogleNewsFetcher{
		apiKey:    apiKey,
		baseURL:   serpAPIBaseURL,
		queries:   queries,
		countries: countries,
		client:    &http.Client{Timeout: timeout},
		parser:    gofeed.NewParser(),
		retry:     retryCfg,
		limiter:   limiter,
	}
}

// FetchNews collects Google News results for every configured query,
// deduplicating identical links within its own result set.
func (f *GoogleNewsFetcher) FetchNews(ctx context.Context, daysBack int) []news.Article {
	if f.apiKey == "" {
		slog.Info("SERPAPI_KEY not set, falling back to Google News RSS")
		return f.fetchRSS(ctx, daysBack)
	}
	return f.fetchSerpAPI(ctx, daysBack)
}

func (f *GoogleNewsFetcher) fetchSerpAPI(ctx context.Context, daysBack int) []news.Article {
	var articles []news.Article
	seenURLs := map[string]struct{}{}

	countries := f.countries
	if len(countries) > maxCountryTargets {
		countries = countries[:maxCountryTargets]
	}

	for _, query := range f.queries {
		for _, country := range countries {
			if f.limiter != nil && !f.limiter.Allow(ratelimit.ProviderSerpAPI) {
				return articles
			}

			resp, status, err := f.search(ctx, query, country.GL)
			if err != nil {
				slog.Warn("SerpAPI request failed", "query", query, "gl", country.GL, "error", err)
				continue
			}
			if status == http.StatusUnauthorized {
				slog.Error("SerpAPI authentication failed, check API key")
				return articles
			}
			if status != http.StatusOK {
				slog.Warn("SerpAPI error", "query", query, "status", status)
				continue
			}

			for _, a := range resp.NewsResults {
				if a.Link == "" {
					continue
				}
				if _, dup := seenURLs[a.Link]; dup {
					continue
				}
				if !withinDateRange(a.Date, daysBack) {
					continue
				}
				title := trimmed(a.Title)
				if title == "" {
					continue
				}
				articles = append(articles, news.Article{
					Title:       title,
					Description: trimmed(a.Snippet),
					URL:         trimmed(a.Link),
					Source:      a.Source.Name,
					PublishedAt: a.Date,
					FetchedFrom: news.SourceGoogleNews,
					Content:     trimmed(a.Snippet),
				})
				seenURLs[a.Link] = struct{}{}
			}
		}
	}

	return articles
}

func (f *GoogleNewsFetcher) search(ctx context.Context, query, gl string) (*serpAPIResponse, int, error) {
	params := url.Values{}
	params.Set("engine", "google_news")
	params.Set("q", query)
	params.Set("gl", gl)
	params.Set("hl", "en")
	params.Set("api_key", f.apiKey)

	var parsed serpAPIResponse
	status := 0

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

// fetchRSS queries the public Google News RSS search feed. Snippets arrive
// as HTML and are reduced to plain text before they enter the pipeline.
func (f *GoogleNewsFetcher) fetchRSS(ctx context.Context, daysBack int) []news.Article {
	var articles []news.Article
	seenURLs := map[string]struct{}{}
	cutoff := time.Now().AddDate(0, 0, -daysBack)

	for _, query := range f.queries {
		feedURL := "https://news.google.com/rss/search?q=" + url.QueryEscape(query) + "&hl=en"

		var feed *gofeed.Feed
		err := retry.WithRetry(ctx, f.retry, func() error {
			parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
			if err != nil {
				return err
			}
			feed = parsed
			return nil
		})
		if err != nil {
			slog.Warn("Google News RSS fetch failed", "query", query, "error", err)
			continue
		}

		for _, item := range feed.Items {
			if item.Link == "" {
				continue
			}
			if _, dup := seenURLs[item.Link]; dup {
				continue
			}
			if item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
				continue
			}

			title, source := splitPublisherSuffix(trimmed(item.Title))
			if title == "" {
				continue
			}

			published := item.Published
			if item.PublishedParsed != nil {
				published = item.PublishedParsed.UTC().Format(time.RFC3339)
			}

			snippet := stripHTML(item.Description)
			articles = append(articles, news.Article{
				Title:       title,
				Description: snippet,
				URL:         trimmed(item.Link),
				Source:      source,
				PublishedAt: published,
				FetchedFrom: news.SourceGoogleNews,
				Content:     snippet,
			})
			seenURLs[item.Link] = struct{}{}
		}
	}

	return articles
}

// splitPublisherSuffix separates the " - Publisher" suffix Google News RSS
// appends to every headline.
func splitPublisherSuffix(title string) (string, string) {
	if idx := strings.LastIndex(title, " - "); idx > 0 {
		return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
	}
	return title, "Google News"
}

// stripHTML flattens an HTML snippet into single-spaced plain text.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return trimmed(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// withinDateRange applies the relative-date window SerpAPI results carry
// ("2 hours ago", "1 day ago"). Missing or unparseable dates are included.
func withinDateRange(dateStr string, daysBack int) bool {
	if dateStr == "" {
		return true
	}

	lower := strings.ToLower(dateStr)
	switch {
	case strings.Contains(lower, "hour") || strings.Contains(lower, "minute"):
		return true
	case strings.Contains(lower, "day"):
		days, ok := leadingDigits(lower)
		if !ok {
			return true
		}
		return days <= daysBack
	case strings.Contains(lower, "week"):
		return false
	}
	return true
}

func leadingDigits(s string) (int, bool) {
	n, found := 0, false
	for _, r := range s {
		if unicode.IsDigit(r) {
			n = n*10 + int(r-'0')
			found = true
		}
	}
	return n, found
}
