package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Host      HostConfig
	Retrieval RetrievalConfig

	// Per-flow runtime overrides. Prompt templates and score thresholds are
	// dataset-dependent and tuned in deployment, not in code.
	FlowPrompts    map[string]string
	FlowThresholds map[string]float64
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
}

type AIConfig struct {
	CompletionModel   string
	EmbeddingModel    string
	Temperature       float64
	MaxTokens         int
	HistoryWindow     int
	CanonicalLanguage string
}

type HostConfig struct {
	BaseURL  string
	ApiToken string
}

type RetrievalConfig struct {
	ExcerptLimit int
	ContextLimit int
}

const (
	flowPromptPrefix    = "FLOW_PROMPT_"
	flowThresholdPrefix = "FLOW_THRESHOLD_"
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			CompletionModel:   getEnv("COMPLETION_MODEL", "gemini-1.5-flash"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			Temperature:       getEnvAsFloat("COMPLETION_TEMPERATURE", 0.3),
			MaxTokens:         getEnvAsInt("COMPLETION_MAX_TOKENS", 1024),
			HistoryWindow:     getEnvAsInt("HISTORY_WINDOW", 8),
			CanonicalLanguage: getEnv("CANONICAL_LANGUAGE", "English"),
		},
		Host: HostConfig{
			BaseURL:  getEnv("HOST_PLATFORM_URL", ""),
			ApiToken: getEnv("HOST_PLATFORM_TOKEN", ""),
		},
		Retrieval: RetrievalConfig{
			ExcerptLimit: getEnvAsInt("RETRIEVAL_EXCERPT_LIMIT", 500),
			ContextLimit: getEnvAsInt("RETRIEVAL_CONTEXT_LIMIT", 3000),
		},
		FlowPrompts:    make(map[string]string),
		FlowThresholds: make(map[string]float64),
	}

	// Collect per-flow overrides: FLOW_PROMPT_HR, FLOW_THRESHOLD_TOR, ...
	for _, entry := range os.Environ() {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		switch {
		case strings.HasPrefix(key, flowPromptPrefix):
			cfg.FlowPrompts[strings.TrimPrefix(key, flowPromptPrefix)] = value
		case strings.HasPrefix(key, flowThresholdPrefix):
			if threshold, err := strconv.ParseFloat(value, 64); err == nil {
				cfg.FlowThresholds[strings.TrimPrefix(key, flowThresholdPrefix)] = threshold
			} else {
				log.Fatalf("[FATAL] invalid %s: %q is not a number", key, value)
			}
		}
	}

	return cfg
}

// Validate fails fast on missing or out-of-range configuration so problems
// surface at startup, not as confusing per-request errors.
func (c *Config) Validate() error {
	if c.Keys.GoogleGemini == "" {
		return fmt.Errorf("GOOGLE_GEMINI_API_KEY is required")
	}
	if c.Database.Connection == "" {
		return fmt.Errorf("DB_CONNECTION_STRING is required")
	}
	if c.Ai.Temperature < 0 || c.Ai.Temperature > 2 {
		return fmt.Errorf("COMPLETION_TEMPERATURE must be in [0,2], got %v", c.Ai.Temperature)
	}
	if c.Ai.MaxTokens <= 0 {
		return fmt.Errorf("COMPLETION_MAX_TOKENS must be positive, got %d", c.Ai.MaxTokens)
	}
	if c.Ai.HistoryWindow <= 0 {
		return fmt.Errorf("HISTORY_WINDOW must be positive, got %d", c.Ai.HistoryWindow)
	}
	for key, threshold := range c.FlowThresholds {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("FLOW_THRESHOLD_%s must be in [0,1], got %v", key, threshold)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		log.Fatalf("[FATAL] invalid %s: %q is not an integer", key, strValue)
	}
	return value
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		log.Fatalf("[FATAL] invalid %s: %q is not a number", key, strValue)
	}
	return value
}
