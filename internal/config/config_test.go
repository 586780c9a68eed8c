package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Connection: "postgres://localhost/flowchat"},
		Keys:     APIKeys{GoogleGemini: "test-key"},
		Ai: AIConfig{
			Temperature:   0.3,
			MaxTokens:     1024,
			HistoryWindow: 8,
		},
		FlowThresholds: map[string]float64{},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing api key", func(c *Config) { c.Keys.GoogleGemini = "" }, "GOOGLE_GEMINI_API_KEY"},
		{"missing db", func(c *Config) { c.Database.Connection = "" }, "DB_CONNECTION_STRING"},
		{"temperature too high", func(c *Config) { c.Ai.Temperature = 2.5 }, "COMPLETION_TEMPERATURE"},
		{"negative temperature", func(c *Config) { c.Ai.Temperature = -0.1 }, "COMPLETION_TEMPERATURE"},
		{"zero max tokens", func(c *Config) { c.Ai.MaxTokens = 0 }, "COMPLETION_MAX_TOKENS"},
		{"zero history window", func(c *Config) { c.Ai.HistoryWindow = 0 }, "HISTORY_WINDOW"},
		{"threshold out of range", func(c *Config) { c.FlowThresholds["HR"] = 1.2 }, "FLOW_THRESHOLD_HR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
