package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Hindsight server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Corpus     CorpusConfig
	Extraction ExtractionConfig
	AI         AIConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// ConnectTimeout bounds how long startup keeps retrying an unreachable database.
	ConnectTimeout time.Duration
}

// RedisConfig is optional. An empty URL selects the in-process cache.
type RedisConfig struct {
	URL string
}

type CacheConfig struct {
	MemorySize  int
	AnalysisTTL time.Duration
}

type RateLimitConfig struct {
	PerMinute int
}

type CorpusConfig struct {
	Source         string
	Path           string
	Watch          bool
	RawStoriesPath string
}

type ExtractionConfig struct {
	Concurrency int
	RatePerSec  int
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	MaxRetries       int
	RequestsPerMin   int
	Ollama           ProviderConfig
	VLLM             ProviderConfig
	OpenAI           ProviderConfig
	Anthropic        ProviderConfig
	Gemini           ProviderConfig
}

// ProviderConfig is the connection block for one generation backend.
// Fields a backend does not use are left empty.
type ProviderConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

const (
	CorpusSourceFile     = "file"
	CorpusSourcePostgres = "postgres"
)

var validProviders = map[string]bool{
	"ollama":    true,
	"vllm":      true,
	"openai":    true,
	"anthropic": true,
	"gemini":    true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("HINDSIGHT_PORT", 8080),
			Env:  envString("HINDSIGHT_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnectTimeout:  envDuration("DATABASE_CONNECT_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Cache: CacheConfig{
			MemorySize:  envInt("CACHE_MEMORY_SIZE", 1024),
			AnalysisTTL: envDuration("ANALYSIS_CACHE_TTL", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			PerMinute: envInt("RATE_LIMIT_PER_MIN", 60),
		},
		Corpus: CorpusConfig{
			Source:         envString("CORPUS_SOURCE", CorpusSourceFile),
			Path:           envString("CORPUS_PATH", "data/regret_patterns.json"),
			Watch:          envBool("CORPUS_WATCH", true),
			RawStoriesPath: envString("RAW_STORIES_PATH", "data/raw_regret_stories.json"),
		},
		Extraction: ExtractionConfig{
			Concurrency: envInt("EXTRACT_CONCURRENCY", 2),
			RatePerSec:  envInt("EXTRACT_RATE_PER_SEC", 10),
		},
		AI: loadAI(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadAI reads and validates only the generation backend settings.
func LoadAI() (*AIConfig, error) {
	ai := loadAI()
	if err := ai.validate(); err != nil {
		return nil, err
	}
	return &ai, nil
}

func loadAI() AIConfig {
	return AIConfig{
		Provider:         os.Getenv("AI_PROVIDER"),
		InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
		MaxRetries:       envInt("AI_MAX_RETRIES", 3),
		RequestsPerMin:   envInt("AI_REQUESTS_PER_MIN", 60),
		Ollama: ProviderConfig{
			BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
			Model:   envString("OLLAMA_MODEL", "llama3"),
		},
		VLLM: ProviderConfig{
			BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000"),
			Model:   envString("VLLM_MODEL", ""),
		},
		OpenAI: ProviderConfig{
			BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com"),
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   envString("OPENAI_MODEL", "gpt-4o"),
		},
		Anthropic: ProviderConfig{
			BaseURL: envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			Model:   envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		},
		Gemini: ProviderConfig{
			BaseURL: envString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   envString("GEMINI_MODEL", "gemini-1.5-pro"),
		},
	}
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}
	if c.Cache.MemorySize <= 0 {
		return fmt.Errorf("CACHE_MEMORY_SIZE must be positive, got %d", c.Cache.MemorySize)
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MIN must be positive, got %d", c.RateLimit.PerMinute)
	}

	switch c.Corpus.Source {
	case CorpusSourceFile:
		if c.Corpus.Path == "" {
			return fmt.Errorf("CORPUS_PATH is required when CORPUS_SOURCE is file")
		}
	case CorpusSourcePostgres:
	default:
		return fmt.Errorf("CORPUS_SOURCE must be one of file, postgres; got %q", c.Corpus.Source)
	}

	if c.Extraction.Concurrency <= 0 {
		return fmt.Errorf("EXTRACT_CONCURRENCY must be positive, got %d", c.Extraction.Concurrency)
	}

	return c.AI.validate()
}

func (a *AIConfig) validate() error {
	if a.Provider == "" {
		return fmt.Errorf("AI_PROVIDER is required")
	}
	if !validProviders[a.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of ollama, vllm, openai, anthropic, gemini; got %q", a.Provider)
	}

	if a.Provider == "openai" && a.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if a.Provider == "anthropic" && a.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
	}
	if a.Provider == "gemini" && a.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
	}
	if a.Provider == "vllm" && a.VLLM.Model == "" {
		return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
	}

	if a.InferenceTimeout <= 0 {
		return fmt.Errorf("AI_INFERENCE_TIMEOUT_SECS must be positive")
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("AI_MAX_RETRIES must not be negative, got %d", a.MaxRetries)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
