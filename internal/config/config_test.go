package config

import (
	"os"
	"testing"
	"time"
)

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	old, ok := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if ok {
			os.Setenv(key, old)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "CHUNK_MAX_TOKENS", "CHUNK_OVERLAP", "TOKEN_MODEL", "LLM_PROVIDER", "LLM_MODEL", "REDIF_HOST", "REDIF_TIMEOUT", "LOG_FORMAT", "CHUNK_BACKOFF_STEP", "LLM_RETRY_ATTEMPTS", "REDIF_LOCAL_PATH"} {
		unsetenv(t, key)
	}

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "json"},
		{"ChunkMaxTokens", cfg.ChunkMaxTokens, 3000},
		{"ChunkOverlap", cfg.ChunkOverlap, 200},
		{"ChunkBackoffStep", cfg.ChunkBackoffStep, 100},
		{"TokenModel", cfg.TokenModel, "gpt-4"},
		{"LLMProvider", cfg.LLMProvider, "openai"},
		{"LLMModel", cfg.LLMModel, "gpt-4.1"},
		{"LLMRetryAttempts", cfg.LLMRetryAttempts, 1},
		{"RedifHost", cfg.RedifHost, "ftp.repec.org:21"},
		{"RedifLocalPath", cfg.RedifLocalPath, "data-raw/repec/defpea.redif"},
		{"RedifTimeout", cfg.RedifTimeout, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CHUNK_MAX_TOKENS", "1000")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("LLM_RETRY_BASE", "2s")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.ChunkMaxTokens != 1000 || cfg.ChunkOverlap != 50 {
		t.Errorf("expected chunking 1000/50, got %d/%d", cfg.ChunkMaxTokens, cfg.ChunkOverlap)
	}
	if cfg.LLMRetryBase != 2*time.Second {
		t.Errorf("expected retry base 2s, got %v", cfg.LLMRetryBase)
	}
}

func TestLoadProviderOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "stub")

	cfg := Load()

	if cfg.LLMProvider != "stub" {
		t.Errorf("expected LLM provider 'stub', got %s", cfg.LLMProvider)
	}
}
