package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"

	"article-extract/internal/chunker"
	"article-extract/internal/config"
	"article-extract/internal/llm"
	"article-extract/internal/logger"
	"article-extract/internal/redif"
	"article-extract/internal/retry"
	"article-extract/internal/summarize"
	"article-extract/internal/tokens"
)

// Deps bundles common runtime dependencies for the commands.
type Deps struct {
	Config  config.Config
	Log     *slog.Logger
	Encoder tokens.Encoder
	LLM     llm.Client
}

// RedifDeps is what the FTP download needs.
type RedifDeps struct {
	Config  config.Config
	Log     *slog.Logger
	Fetcher *redif.Fetcher
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	d, err := BuildChunking()
	if err != nil {
		return Deps{}, err
	}
	if d.LLM, err = buildLLM(d.Config, d.Log); err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return d, nil
}

// BuildChunking loads what chunking needs: config, logger and encoder.
// The returned Deps has no LLM client.
func BuildChunking() (Deps, error) {
	cfg, log, err := loadBase()
	if err != nil {
		return Deps{}, err
	}
	return withEncoder(cfg, log)
}

func withEncoder(cfg config.Config, log *slog.Logger) (Deps, error) {
	enc, err := tokens.NewTiktoken(cfg.TokenModel)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	log.Info("using tiktoken encoder", "model", cfg.TokenModel)
	return Deps{Config: cfg, Log: log, Encoder: enc}, nil
}

// BuildRedif loads env and config for the FTP fetcher only.
func BuildRedif() (RedifDeps, error) {
	cfg, log, err := loadBase()
	if err != nil {
		return RedifDeps{}, err
	}
	return RedifDeps{
		Config:  cfg,
		Log:     log,
		Fetcher: redif.NewFetcher(RedifConfig(cfg), log),
	}, nil
}

func loadBase() (config.Config, *slog.Logger, error) {
	// A missing .env file is fine; the environment alone is enough.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel, cfg.LogFormat), nil
}

// ChunkOptions maps the chunking settings onto chunker options.
func ChunkOptions(cfg config.Config) chunker.Options {
	return chunker.Options{
		MaxTokens:   cfg.ChunkMaxTokens,
		Overlap:     cfg.ChunkOverlap,
		BackoffStep: cfg.ChunkBackoffStep,
	}
}

// RedifConfig maps the FTP settings onto the fetcher config.
func RedifConfig(cfg config.Config) redif.Config {
	return redif.Config{
		Host:      cfg.RedifHost,
		Dir:       cfg.RedifDir,
		File:      cfg.RedifFile,
		LocalPath: cfg.RedifLocalPath,
		Timeout:   cfg.RedifTimeout,
	}
}

// Pipeline returns the extraction pipeline configured from deps.
func (d Deps) Pipeline() summarize.Pipeline {
	return summarize.Pipeline{
		Encoder: d.Encoder,
		LLM:     d.LLM,
		Options: ChunkOptions(d.Config),
		Retry: retry.Policy{
			Attempts: d.Config.LLMRetryAttempts,
			Base:     d.Config.LLMRetryBase,
		},
		Log: d.Log,
	}
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	case "stub":
		log.Warn("using stub LLM client; extractions are placeholders")
		return llm.StubClient{}, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: openai, stub)", cfg.LLMProvider)
	}
}
