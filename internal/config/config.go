package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	// Server
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "text"

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"26214400"` // 25MB in bytes

	// Chunking
	ChunkMaxTokens   int    `env:"CHUNK_MAX_TOKENS" envDefault:"3000"`
	ChunkOverlap     int    `env:"CHUNK_OVERLAP" envDefault:"200"`
	ChunkBackoffStep int    `env:"CHUNK_BACKOFF_STEP" envDefault:"100"`
	TokenModel       string `env:"TOKEN_MODEL" envDefault:"gpt-4"`

	// LLM
	LLMProvider      string        `env:"LLM_PROVIDER" envDefault:"openai"` // "openai" or "stub" (no network)
	OpenAIKey        string        `env:"OPENAI_API_KEY"`
	LLMModel         string        `env:"LLM_MODEL" envDefault:"gpt-4.1"`
	LLMRetryAttempts int           `env:"LLM_RETRY_ATTEMPTS" envDefault:"1"`
	LLMRetryBase     time.Duration `env:"LLM_RETRY_BASE" envDefault:"500ms"`

	// RePEc FTP
	RedifHost      string        `env:"REDIF_HOST" envDefault:"ftp.repec.org:21"`
	RedifDir       string        `env:"REDIF_DIR" envDefault:"/opt/ReDIF/RePEc/taf/defpea"`
	RedifFile      string        `env:"REDIF_FILE" envDefault:"defpea.redif"`
	RedifLocalPath string        `env:"REDIF_LOCAL_PATH" envDefault:"data-raw/repec/defpea.redif"`
	RedifTimeout   time.Duration `env:"REDIF_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
