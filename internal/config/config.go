package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	GeminiAPIURL string
	GeminiAPIKey string
	GeminiModel  string

	LLMTimeoutSeconds     int
	LLMRequestsPerMinute  int
	LLMRetryMaxAttempts   int
	LLMRetryInitialMillis int
	LLMRetryMaxMillis     int

	// StorageBackend selects the document store: "local" or "s3".
	StorageBackend string
	StoragePath    string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	RulesPath       string
	DefaultLanguage string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		GeminiAPIURL: mustEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey: mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:  mustEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		LLMTimeoutSeconds:     mustEnvInt("LLM_TIMEOUT_SECONDS", 120),
		LLMRequestsPerMinute:  mustEnvInt("LLM_REQUESTS_PER_MINUTE", 60),
		LLMRetryMaxAttempts:   mustEnvInt("LLM_RETRY_MAX_ATTEMPTS", 3),
		LLMRetryInitialMillis: mustEnvInt("LLM_RETRY_INITIAL_MS", 1000),
		LLMRetryMaxMillis:     mustEnvInt("LLM_RETRY_MAX_MS", 10000),

		StorageBackend: mustEnv("STORAGE_BACKEND", "local"),
		StoragePath:    mustEnv("STORAGE_PATH", "./data/storage"),

		S3Bucket:          mustEnv("S3_BUCKET", ""),
		S3Region:          mustEnv("S3_REGION", ""),
		S3Endpoint:        mustEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     mustEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: mustEnv("S3_SECRET_ACCESS_KEY", ""),

		RulesPath:       mustEnv("RULES_PATH", ""),
		DefaultLanguage: mustEnv("DEFAULT_LANGUAGE", "en"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
