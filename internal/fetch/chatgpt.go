package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/deusflow/meternews/internal/news"
	"github.com/deusflow/meternews/internal/ratelimit"
)

const fetchSystemPrompt = "You are a specialized news researcher for the energy and utilities sector. Always respond with valid JSON only."

const analysisSystemPrompt = "You are an energy sector analyst specializing in metering and smart grid technologies. Provide concise, actionable insights."

// ChatGPTFetcher asks an OpenAI model for recent electricity-meter news and
// produces the digest analysis over the deduplicated batch.
type ChatGPTFetcher struct {
	client  *openai.Client
	model   string
	limiter *ratelimit.Limiter
}

type chatGPTArticle struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	URL            string  `json:"url"`
	Source         string  `json:"source"`
	PublishedAt    string  `json:"published_at"`
	RelevanceScore float64 `json:"relevance_score"`
}

type chatGPTResponse struct {
	Articles []chatGPTArticle `json:"articles"`
}

// NewChatGPTFetcher builds the adapter. With an empty apiKey the adapter is
// inert: fetches return nothing and the analysis is an empty string.
func NewChatGPTFetcher(apiKey, model string, limiter *ratelimit.Limiter) *ChatGPTFetcher {
	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}
	return &ChatGPTFetcher{client: client, model: model, limiter: limiter}
}

// FetchNews asks the model for meter news within the date window and parses
// the JSON article list it returns. Any failure yields an empty slice.
func (f *ChatGPTFetcher) FetchNews(ctx context.Context, daysBack int) []news.Article {
	if f.client == nil {
		slog.Warn("OPENAI_API_KEY not set, skipping ChatGPT source")
		return nil
	}
	if f.limiter != nil && !f.limiter.Allow(ratelimit.ProviderOpenAI) {
		return nil
	}

	resp, err := f.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: f.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fetchSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fetchPrompt(daysBack)},
		},
		MaxTokens:      3000,
		Temperature:    0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		slog.Warn("ChatGPT request failed", "error", err)
		return nil
	}
	if len(resp.Choices) == 0 {
		slog.Warn("ChatGPT returned no choices")
		return nil
	}

	var parsed chatGPTResponse
	content := cleanupJSONResponse(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		slog.Warn("ChatGPT returned invalid JSON", "error", err)
		return nil
	}

	articles := make([]news.Article, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if std, ok := f.standardize(a); ok {
			articles = append(articles, std)
		}
	}
	return articles
}

// EnhanceArticles produces a short executive analysis of the deduplicated
// batch, suitable for the digest tail. Returns "" on any failure or when
// there is nothing to analyze.
func (f *ChatGPTFetcher) EnhanceArticles(ctx context.Context, articles []news.Article) string {
	if f.client == nil || len(articles) == 0 {
		return ""
	}
	if f.limiter != nil && !f.limiter.Allow(ratelimit.ProviderOpenAI) {
		return ""
	}

	resp, err := f.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: f.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: analysisPrompt(articles)},
		},
		MaxTokens:   800,
		Temperature: 0.5,
	})
	if err != nil {
		slog.Warn("ChatGPT analysis failed", "error", err)
		return ""
	}
	if len(resp.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func (f *ChatGPTFetcher) standardize(a chatGPTArticle) (news.Article, bool) {
	title := trimmed(a.Title)
	if title == "" {
		return news.Article{}, false
	}

	source := a.Source
	if source == "" {
		source = "Unknown"
	}
	score := a.RelevanceScore
	if score == 0 {
		score = 0.5
	}

	return news.Article{
		Title:          title,
		Description:    trimmed(a.Description),
		URL:            trimmed(a.URL),
		Source:         source,
		PublishedAt:    a.PublishedAt,
		FetchedFrom:    news.SourceChatGPT,
		Content:        trimmed(a.Description),
		RelevanceScore: score,
	}, true
}

func fetchPrompt(daysBack int) string {
	today := time.Now()
	fromDate := today.AddDate(0, 0, -daysBack).Format("2006-01-02")
	toDate := today.Format("2006-01-02")

	return fmt.Sprintf(`
You are a news research assistant. Based on your knowledge, provide recent news about
electricity meters, smart meters, and metering solutions in the Middle East and Africa region.

Date range: %s to %s

Focus on:
- Smart meter deployments and rollouts
- Electricity metering infrastructure projects
- Utility company announcements about metering
- Government tenders and initiatives for meters
- Technology partnerships in metering sector
- Prepaid meter installations
- AMI/AMR implementations

Countries: UAE, Saudi Arabia, Qatar, Kuwait, Bahrain, Oman, Egypt,
South Africa, Nigeria, Kenya, Morocco, Ghana, Tanzania, Ethiopia

IMPORTANT: Return your response as a valid JSON object with this structure:
{
    "articles": [
        {
            "title": "Article headline",
            "description": "Brief 2-3 sentence summary",
            "url": "https://source-url.com/article",
            "source": "Publication name",
            "published_at": "YYYY-MM-DD",
            "relevance_score": 0.95
        }
    ]
}

Only include articles you are confident about with real URLs.
If you don't have recent information, return: {"articles": []}
`, fromDate, toDate)
}

func analysisPrompt(articles []news.Article) string {
	const maxArticles = 15
	const maxDescription = 200

	var b strings.Builder
	for i, a := range articles {
		if i >= maxArticles {
			break
		}
		desc := a.Description
		if runes := []rune(desc); len(runes) > maxDescription {
			desc = string(runes[:maxDescription])
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", a.Title, a.Source, desc)
	}

	return fmt.Sprintf(`
Analyze these electricity meter news articles for the Middle East and Africa region
and provide a brief executive summary:

Articles:
%s

Provide:
1. **Key Trends** (2-3 bullet points)
2. **Notable Developments** (highlight 2-3 most significant news items)
3. **Market Outlook** (1-2 sentences)

Keep the response concise (under 400 words) and suitable for WhatsApp.
Use emojis sparingly for better readability.
Format in plain text, not markdown.
`, b.String())
}

// cleanupJSONResponse removes code fences some models wrap around JSON
// despite the response-format hint.
func cleanupJSONResponse(s string) string {
	c := strings.TrimSpace(s)
	if strings.HasPrefix(c, "```") {
		if idx := strings.Index(c, "\n"); idx != -1 {
			c = c[idx+1:]
		}
		c = strings.TrimSuffix(strings.TrimSpace(c), "```")
		c = strings.TrimSpace(c)
	}
	return c
}
