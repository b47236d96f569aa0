package config

import "testing"

func TestLoadIncludesPipelineDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_URL", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("LLM_RETRY_MAX_ATTEMPTS", "")
	t.Setenv("DEFAULT_LANGUAGE", "")

	cfg := Load()
	if cfg.GeminiAPIURL != "https://generativelanguage.googleapis.com" {
		t.Fatalf("expected default gemini url, got %q", cfg.GeminiAPIURL)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("expected default model, got %q", cfg.GeminiModel)
	}
	if cfg.StorageBackend != "local" {
		t.Fatalf("expected default storage backend local, got %q", cfg.StorageBackend)
	}
	if cfg.LLMRetryMaxAttempts != 3 {
		t.Fatalf("expected default retry attempts 3, got %d", cfg.LLMRetryMaxAttempts)
	}
	if cfg.DefaultLanguage != "en" {
		t.Fatalf("expected default language en, got %q", cfg.DefaultLanguage)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "claim-docs")
	t.Setenv("S3_REGION", "eu-west-1")
	t.Setenv("LLM_REQUESTS_PER_MINUTE", "15")
	t.Setenv("RULES_PATH", "/etc/claimaudit/rules.yaml")

	cfg := Load()
	if cfg.StorageBackend != "s3" {
		t.Fatalf("expected storage backend override, got %q", cfg.StorageBackend)
	}
	if cfg.S3Bucket != "claim-docs" {
		t.Fatalf("expected bucket override, got %q", cfg.S3Bucket)
	}
	if cfg.S3Region != "eu-west-1" {
		t.Fatalf("expected region override, got %q", cfg.S3Region)
	}
	if cfg.LLMRequestsPerMinute != 15 {
		t.Fatalf("expected rpm override, got %d", cfg.LLMRequestsPerMinute)
	}
	if cfg.RulesPath != "/etc/claimaudit/rules.yaml" {
		t.Fatalf("expected rules path override, got %q", cfg.RulesPath)
	}
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("LLM_TIMEOUT_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.LLMTimeoutSeconds != 120 {
		t.Fatalf("expected fallback timeout 120, got %d", cfg.LLMTimeoutSeconds)
	}
}
