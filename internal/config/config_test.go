package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DaysBack != 2 {
		t.Errorf("DaysBack = %d, want 2", cfg.DaysBack)
	}
	if cfg.SimilarityThreshold != 0.75 {
		t.Errorf("SimilarityThreshold = %v, want 0.75", cfg.SimilarityThreshold)
	}
	if cfg.MaxCharsPerMessage != 1400 {
		t.Errorf("MaxCharsPerMessage = %d, want 1400", cfg.MaxCharsPerMessage)
	}
	if cfg.OpenAIModel != "gpt-4-turbo-preview" {
		t.Errorf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.CacheTTLHours != 72 {
		t.Errorf("CacheTTLHours = %d, want 72", cfg.CacheTTLHours)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DAYS_BACK", "5")
	t.Setenv("SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "10")
	t.Setenv("WHATSAPP_PHONE_NUMBERS", "+201000000001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DaysBack != 5 {
		t.Errorf("DaysBack = %d, want 5", cfg.DaysBack)
	}
	if cfg.SimilarityThreshold != 0.9 {
		t.Errorf("SimilarityThreshold = %v, want 0.9", cfg.SimilarityThreshold)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Errorf("OpenAIModel = %q, want gpt-4o", cfg.OpenAIModel)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.WhatsAppRecipients != "+201000000001" {
		t.Errorf("WhatsAppRecipients = %q", cfg.WhatsAppRecipients)
	}
}

func TestLoad_InvalidThreshold(t *testing.T) {
	t.Setenv("SIMILARITY_THRESHOLD", "1.5")

	if _, err := Load(); err == nil {
		t.Error("expected validation error for threshold above 1")
	}
}

func TestValidate_Bounds(t *testing.T) {
	base := func() *Config {
		return &Config{SimilarityThreshold: 0.75, DaysBack: 2, MaxCharsPerMessage: 1400}
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	c := base()
	c.DaysBack = 0
	if err := c.Validate(); err == nil {
		t.Error("DaysBack 0 accepted")
	}

	c = base()
	c.MaxCharsPerMessage = 50
	if err := c.Validate(); err == nil {
		t.Error("MaxCharsPerMessage 50 accepted")
	}

	c = base()
	c.SimilarityThreshold = -0.1
	if err := c.Validate(); err == nil {
		t.Error("negative threshold accepted")
	}
}
