// Package metrics keeps in-process counters for the aggregation run,
// exposed through the monitoring endpoints.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ArticlesFetched    int64
	NewsAPIArticles    int64
	GoogleNewsArticles int64
	ChatGPTArticles    int64
	DuplicatesFiltered int64
	UniqueArticles     int64
	AnalysisGenerated  int64
	MessagesSent       int64
	MessagesFailed     int64

	// Timings
	LastProcessingTime    time.Duration
	TotalProcessingTime   time.Duration
	AverageProcessingTime time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddArticlesFetched(source string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFetched += int64(n)
	switch source {
	case "NewsAPI":
		m.NewsAPIArticles += int64(n)
	case "GoogleNews":
		m.GoogleNewsArticles += int64(n)
	case "ChatGPT":
		m.ChatGPTArticles += int64(n)
	}
}

func (m *Metrics) IncrementDuplicatesFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered++
}

func (m *Metrics) SetUniqueArticles(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UniqueArticles = int64(n)
}

func (m *Metrics) IncrementAnalysisGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnalysisGenerated++
}

func (m *Metrics) IncrementMessagesSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesSent++
}

func (m *Metrics) IncrementMessagesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesFailed++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"articles_fetched":           m.ArticlesFetched,
		"newsapi_articles":           m.NewsAPIArticles,
		"google_news_articles":       m.GoogleNewsArticles,
		"chatgpt_articles":           m.ChatGPTArticles,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"unique_articles":            m.UniqueArticles,
		"analysis_generated":         m.AnalysisGenerated,
		"messages_sent":              m.MessagesSent,
		"messages_failed":            m.MessagesFailed,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
