package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Store      StoreConfig      `yaml:"store"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Queue      QueueConfig      `yaml:"queue"`
	Deploy     DeployConfig     `yaml:"deploy"`
	Log        LogConfig        `yaml:"log"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	RootDomain     string          `yaml:"rootDomain"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains settings for the OpenAI compatible endpoint.
type LLMConfig struct {
	APIKey        string        `yaml:"apiKey"`
	BaseURL       string        `yaml:"baseUrl"`
	Model         string        `yaml:"model"`
	Temperature   float32       `yaml:"temperature"`
	MaxToolRounds int           `yaml:"maxToolRounds"`
	Timeout       time.Duration `yaml:"timeout"`
}

// GenerationConfig controls how previews are produced.
type GenerationConfig struct {
	Mode             string        `yaml:"mode"`
	SystemPrompt     string        `yaml:"systemPrompt"`
	DefaultTitle     string        `yaml:"defaultTitle"`
	MaxPayloadTokens int           `yaml:"maxPayloadTokens"`
	Timeout          time.Duration `yaml:"timeout"`
	TokenizerModel   string        `yaml:"tokenizerModel"`
}

// StoreConfig controls the preview specification store.
type StoreConfig struct {
	SpecTTL          time.Duration `yaml:"specTtl"`
	KeyPrefix        string        `yaml:"keyPrefix"`
	MemoryMaxEntries int           `yaml:"memoryMaxEntries"`
	Redis            RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for Valkey/Redis.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ArchiveConfig points at the S3 compatible bucket for deployment snapshots.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
}

// QueueConfig selects the background job backend.
type QueueConfig struct {
	Backend string `yaml:"backend"`
	Name    string `yaml:"name"`
}

// DeployConfig controls deployed dashboard URLs.
type DeployConfig struct {
	BaseDomain string `yaml:"baseDomain"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from .env, a YAML file and environment variables, in that order.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv never overrides variables that are already set.
func loadDotEnv() error {
	path := os.Getenv("DOTENV_PATH")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	setString(&cfg.HTTP.RootDomain, "HTTP_ROOT_DOMAIN")
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	// THESYS_API_KEY is the name the hosted deployment used for the same key.
	setString(&cfg.LLM.APIKey, "THESYS_API_KEY")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	setInt(&cfg.LLM.MaxToolRounds, "LLM_MAX_TOOL_ROUNDS")
	setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT")

	setString(&cfg.Generation.Mode, "GENERATION_MODE")
	setString(&cfg.Generation.SystemPrompt, "GENERATION_SYSTEM_PROMPT")
	setString(&cfg.Generation.DefaultTitle, "GENERATION_DEFAULT_TITLE")
	setInt(&cfg.Generation.MaxPayloadTokens, "GENERATION_MAX_PAYLOAD_TOKENS")
	setDuration(&cfg.Generation.Timeout, "GENERATION_TIMEOUT")
	setString(&cfg.Generation.TokenizerModel, "GENERATION_TOKENIZER_MODEL")

	setDuration(&cfg.Store.SpecTTL, "STORE_SPEC_TTL")
	setString(&cfg.Store.KeyPrefix, "STORE_KEY_PREFIX")
	setInt(&cfg.Store.MemoryMaxEntries, "STORE_MEMORY_MAX_ENTRIES")
	setBool(&cfg.Store.Redis.Enabled, "STORE_REDIS_ENABLED")
	setString(&cfg.Store.Redis.Addr, "STORE_REDIS_ADDR")

	setString(&cfg.Postgres.DSN, "POSTGRES_DSN")
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}

	setBool(&cfg.Archive.Enabled, "ARCHIVE_ENABLED")
	setString(&cfg.Archive.Endpoint, "ARCHIVE_ENDPOINT")
	setString(&cfg.Archive.AccessKey, "ARCHIVE_ACCESS_KEY")
	setString(&cfg.Archive.SecretKey, "ARCHIVE_SECRET_KEY")
	setString(&cfg.Archive.Bucket, "ARCHIVE_BUCKET")
	setString(&cfg.Archive.Region, "ARCHIVE_REGION")
	setString(&cfg.Archive.Prefix, "ARCHIVE_PREFIX")

	setString(&cfg.Queue.Backend, "QUEUE_BACKEND")
	setString(&cfg.Queue.Name, "QUEUE_NAME")
	setString(&cfg.Deploy.BaseDomain, "DEPLOY_BASE_DOMAIN")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   120 * time.Second,
			RootDomain:     "getflowetic.com",
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/webhooks",
					"/api/v1/preview",
					"/api/v1/chat",
					"/api/v1/deploy",
					"/api/v1/clients",
				},
			},
		},
		LLM: LLMConfig{
			BaseURL:       "https://api.openai.com/v1",
			Model:         "gpt-4o-mini",
			Temperature:   0.2,
			MaxToolRounds: 5,
			Timeout:       60 * time.Second,
		},
		Generation: GenerationConfig{
			Mode:             "auto",
			MaxPayloadTokens: 8000,
			Timeout:          90 * time.Second,
			TokenizerModel:   "gpt-4o-mini",
		},
		Store: StoreConfig{
			SpecTTL:          24 * time.Hour,
			KeyPrefix:        "flowdash",
			MemoryMaxEntries: 1000,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Archive: ArchiveConfig{
			Prefix: "deployments",
		},
		Queue: QueueConfig{
			Backend: "immediate",
			Name:    "flowdash:jobs",
		},
		Deploy: DeployConfig{
			BaseDomain: "getflowetic.com",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	switch c.Generation.Mode {
	case "auto", "direct":
	case "llm":
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return errors.New("generation.mode llm requires llm.apiKey")
		}
	default:
		return fmt.Errorf("generation.mode must be auto, llm or direct, got %q", c.Generation.Mode)
	}
	if c.Generation.MaxPayloadTokens < 0 {
		return errors.New("generation.maxPayloadTokens cannot be negative")
	}
	if c.LLM.MaxToolRounds <= 0 {
		return errors.New("llm.maxToolRounds must be positive")
	}
	if c.Store.SpecTTL <= 0 {
		return errors.New("store.specTtl must be positive")
	}
	if c.Store.MemoryMaxEntries <= 0 {
		return errors.New("store.memoryMaxEntries must be positive")
	}
	if c.Store.Redis.Enabled && strings.TrimSpace(c.Store.Redis.Addr) == "" {
		return errors.New("store.redis.addr cannot be empty when redis is enabled")
	}
	switch c.Queue.Backend {
	case "immediate":
	case "valkey":
		if !c.Store.Redis.Enabled {
			return errors.New("queue.backend valkey requires store.redis")
		}
	default:
		return fmt.Errorf("queue.backend must be immediate or valkey, got %q", c.Queue.Backend)
	}
	if c.Archive.Enabled && (strings.TrimSpace(c.Archive.Endpoint) == "" || strings.TrimSpace(c.Archive.Bucket) == "") {
		return errors.New("archive.endpoint and archive.bucket are required when the archive is enabled")
	}
	if strings.TrimSpace(c.Deploy.BaseDomain) == "" {
		return errors.New("deploy.baseDomain cannot be empty")
	}
	return nil
}

// LLMEnabled reports whether a model endpoint is configured.
func (c *Config) LLMEnabled() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}
