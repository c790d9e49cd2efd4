// Package ratelimit caps how many requests each upstream API gets per run,
// so one aggressive query list cannot burn through a free-tier quota.
package ratelimit

import (
	"log/slog"
	"sync"
)

// Provider names tracked by the limiter.
const (
	ProviderNewsAPI = "newsapi"
	ProviderSerpAPI = "serpapi"
	ProviderOpenAI  = "openai"
)

// Limiter counts outbound requests per provider against configured maxima.
// A max of 0 means unlimited.
type Limiter struct {
	mu     sync.Mutex
	counts map[string]int
	maxima map[string]int
}

// New creates a limiter with per-provider request budgets.
func New(maxNewsAPI, maxSerpAPI, maxOpenAI int) *Limiter {
	return &Limiter{
		counts: make(map[string]int),
		maxima: map[string]int{
			ProviderNewsAPI: maxNewsAPI,
			ProviderSerpAPI: maxSerpAPI,
			ProviderOpenAI:  maxOpenAI,
		},
	}
}

// Allow reports whether another request to the provider fits the budget and
// records it when it does.
func (l *Limiter) Allow(provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	max := l.maxima[provider]
	if max > 0 && l.counts[provider] >= max {
		slog.Warn("request budget exhausted", "provider", provider, "max", max)
		return false
	}

	l.counts[provider]++
	return true
}

// Used returns how many requests the provider has consumed this run.
func (l *Limiter) Used(provider string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[provider]
}
