// Package fetch contains the upstream source adapters. Each adapter maps
// its provider's response onto the standardized Article shape and never
// lets an ordinary upstream failure (auth, rate limit, timeout, bad JSON)
// escape its boundary: it logs and returns what it has, possibly nothing.
package fetch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/meternews/internal/news"
)

// Fetcher is the contract every source adapter implements.
type Fetcher interface {
	// FetchNews returns articles published within the last daysBack days.
	// An empty slice means "nothing from this source", whether the source
	// had nothing to report or failed entirely.
	FetchNews(ctx context.Context, daysBack int) []news.Article
}

// CountryTarget narrows a Google News search to one market.
type CountryTarget struct {
	GL       string `yaml:"gl"`
	Location string `yaml:"location"`
}

// Queries is the search configuration shared by the adapters.
type Queries struct {
	NewsAPI             []string        `yaml:"newsapi_queries"`
	GoogleNews          []string        `yaml:"google_news_queries"`
	GoogleNewsCountries []CountryTarget `yaml:"google_news_countries"`
}

// LoadQueries reads the search query lists from a YAML file.
func LoadQueries(path string) (*Queries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries config: %w", err)
	}
	defer f.Close()

	var q Queries
	if err := yaml.NewDecoder(f).Decode(&q); err != nil {
		return nil, fmt.Errorf("decode queries config: %w", err)
	}
	return &q, nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// DefaultQueries returns the built-in electricity-meter search set, used
// when no queries config file is present.
func DefaultQueries() *Queries {
	return &Queries{
		NewsAPI: []string{
			"electricity meter Middle East",
			"smart meter Africa",
			"electricity metering UAE Saudi",
			"smart grid Africa",
			"utility meter Nigeria South Africa",
			"prepaid electricity meter Africa",
			"AMI metering Middle East",
			"electricity meter Egypt Morocco Kenya",
		},
		GoogleNews: []string{
			"electricity meter Middle East Africa",
			"smart meter deployment UAE Saudi Arabia",
			"electricity metering project Africa",
			"smart grid Nigeria South Africa Egypt",
			"utility smart meter GCC",
			"prepaid meter Africa",
			"AMR AMI meter Middle East",
		},
		GoogleNewsCountries: []CountryTarget{
			{GL: "ae", Location: "United Arab Emirates"},
			{GL: "sa", Location: "Saudi Arabia"},
			{GL: "za", Location: "South Africa"},
			{GL: "ng", Location: "Nigeria"},
			{GL: "eg", Location: "Egypt"},
			{GL: "ke", Location: "Kenya"},
		},
	}
}
