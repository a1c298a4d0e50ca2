package app

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-extract/internal/chunker"
	"article-extract/internal/config"
	"article-extract/internal/llm"
	"article-extract/internal/tokens"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildLLM(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"openai with key", config.Config{LLMProvider: "openai", OpenAIKey: "sk-test", LLMModel: "gpt-4.1"}, false},
		{"openai without key", config.Config{LLMProvider: "openai"}, true},
		{"stub", config.Config{LLMProvider: "stub"}, false},
		{"unknown provider", config.Config{LLMProvider: "carrier-pigeon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := buildLLM(tt.cfg, discard())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestBuildChunkingWithoutAPIKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("TOKEN_MODEL", "gpt-4")

	d, err := BuildChunking()
	if errors.Is(err, tokens.ErrEncodingFailure) {
		t.Skipf("tokenizer unavailable: %v", err)
	}
	require.NoError(t, err)
	assert.NotNil(t, d.Encoder)
	assert.NotNil(t, d.Log)
	assert.Nil(t, d.LLM)

	_, err = Build()
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestPipelineFromConfig(t *testing.T) {
	d := Deps{
		Config: config.Config{
			ChunkMaxTokens:   1000,
			ChunkOverlap:     100,
			ChunkBackoffStep: 50,
			LLMRetryAttempts: 3,
			LLMRetryBase:     time.Second,
		},
		Log: discard(),
		LLM: llm.StubClient{},
	}
	p := d.Pipeline()
	assert.Equal(t, chunker.Options{MaxTokens: 1000, Overlap: 100, BackoffStep: 50}, p.Options)
	assert.Equal(t, 3, p.Retry.Attempts)
	assert.Equal(t, time.Second, p.Retry.Base)
}

func TestRedifConfig(t *testing.T) {
	rc := RedifConfig(config.Config{RedifHost: "h:21", RedifDir: "/d", RedifFile: "f", RedifLocalPath: "out/f", RedifTimeout: time.Minute})
	assert.Equal(t, "h:21", rc.Host)
	assert.Equal(t, "/d", rc.Dir)
	assert.Equal(t, "f", rc.File)
	assert.Equal(t, "out/f", rc.LocalPath)
	assert.Equal(t, time.Minute, rc.Timeout)
}
