// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Upstream API credentials
	NewsAPIKey  string
	SerpAPIKey  string
	OpenAIKey   string
	OpenAIModel string

	// Twilio WhatsApp settings
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	WhatsAppRecipients   string // comma-separated E.164 numbers
	MaxCharsPerMessage   int    // chunk budget for outbound messages

	// Aggregation settings
	DaysBack            int
	SimilarityThreshold float64
	QueriesConfigPath   string

	// Request budgets per run (0 = unlimited)
	MaxNewsAPIRequests int
	MaxSerpAPIRequests int
	MaxOpenAIRequests  int

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration

	// Sent-article cache settings
	CacheFilePath string
	CacheTTLHours int
	DatabaseURL   string // when set, Postgres replaces the file cache
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		OpenAIModel:         "gpt-4-turbo-preview",
		MaxCharsPerMessage:  1400,
		DaysBack:            2,
		SimilarityThreshold: 0.75,
		QueriesConfigPath:   "configs/queries.yaml",
		MaxNewsAPIRequests:  20,
		MaxSerpAPIRequests:  25,
		MaxOpenAIRequests:   3,
		RequestTimeout:      30 * time.Second,
		RetryAttempts:       3,
		RetryDelay:          time.Second,
	}

	// Load from environment
	cfg.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	cfg.SerpAPIKey = os.Getenv("SERPAPI_KEY")
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", cfg.OpenAIModel)

	cfg.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.TwilioWhatsAppNumber = os.Getenv("TWILIO_WHATSAPP_NUMBER")
	cfg.WhatsAppRecipients = os.Getenv("WHATSAPP_PHONE_NUMBERS")
	cfg.MaxCharsPerMessage = getEnvIntOrDefault("WHATSAPP_MAX_CHARS_PER_MSG", cfg.MaxCharsPerMessage)

	cfg.DaysBack = getEnvIntOrDefault("DAYS_BACK", cfg.DaysBack)
	cfg.QueriesConfigPath = getEnvOrDefault("QUERIES_CONFIG_PATH", cfg.QueriesConfigPath)

	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SimilarityThreshold = val
		}
	}

	cfg.MaxNewsAPIRequests = getEnvIntOrDefault("MAX_NEWSAPI_REQUESTS", cfg.MaxNewsAPIRequests)
	cfg.MaxSerpAPIRequests = getEnvIntOrDefault("MAX_SERPAPI_REQUESTS", cfg.MaxSerpAPIRequests)
	cfg.MaxOpenAIRequests = getEnvIntOrDefault("MAX_OPENAI_REQUESTS", cfg.MaxOpenAIRequests)

	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	if v := os.Getenv("RETRY_DELAY_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RetryDelay = time.Duration(val) * time.Second
		}
	}

	cfg.CacheFilePath = getEnvOrDefault("CACHE_FILE_PATH", "sent_articles.json")
	cfg.CacheTTLHours = getEnvIntOrDefault("CACHE_TTL_HOURS", 72)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// Validate rejects values the pipeline cannot run with. Missing API keys are
// not fatal: each adapter degrades to an empty result and the sender reports
// a skipped delivery, matching the per-source failure isolation.
func (c *Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be between 0 and 1, got %v", c.SimilarityThreshold)
	}
	if c.DaysBack < 1 {
		return fmt.Errorf("DAYS_BACK must be at least 1, got %d", c.DaysBack)
	}
	if c.MaxCharsPerMessage < 100 {
		return fmt.Errorf("WHATSAPP_MAX_CHARS_PER_MSG must be at least 100, got %d", c.MaxCharsPerMessage)
	}
	return nil
}
