package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		ScanRateLimit   float64       `yaml:"scan_rate_limit" default:"0.05"` // scans per second per client
		ScanBurst       float64       `yaml:"scan_burst" default:"2"`
		AllowOrigins    []string      `yaml:"allow_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
	Log struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"100"`
		MaxBackups int    `yaml:"max_backups" default:"7"`
		MaxAgeDays int    `yaml:"max_age_days" default:"30"`
	} `yaml:"log"`
	Finnhub struct {
		BaseURL      string        `yaml:"base_url" default:"https://finnhub.io/api/v1" validate:"url"`
		APIKey       string        `yaml:"api_key"`
		Timeout      time.Duration `yaml:"timeout" default:"15s"`
		Retries      int           `yaml:"retries" default:"3" validate:"gte=0,lte=10"`
		BaseDelay    time.Duration `yaml:"base_delay" default:"400ms"`
		RequestDelay time.Duration `yaml:"request_delay" default:"0s"`
		RateLimitRPS float64       `yaml:"rate_limit_rps" default:"0"`
	} `yaml:"finnhub"`
	Volatility struct {
		BaseURL  string        `yaml:"base_url" validate:"required,url"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout" default:"60s"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"30m"`
	} `yaml:"volatility"`
	Universe struct {
		Symbols []string `yaml:"symbols" validate:"required,min=1,dive,required"`
	} `yaml:"universe"`
	Pipeline struct {
		LookaheadDays   int           `yaml:"lookahead_days" default:"45" validate:"gte=1"`
		PrescreenTopK   int           `yaml:"prescreen_top_k" default:"8" validate:"gte=1"`
		FinalTopK       int           `yaml:"final_top_k" default:"5" validate:"gte=1"`
		MinQuality      int           `yaml:"min_quality" default:"5"`
		BenchmarkSymbol string        `yaml:"benchmark_symbol" default:"VIX" validate:"required"`
		LockTTL         time.Duration `yaml:"lock_ttl" default:"10m"`
		ReportTTL       time.Duration `yaml:"report_ttl" default:"24h"`
	} `yaml:"pipeline"`
	LLM struct {
		Provider    string        `yaml:"provider" default:"gemini" validate:"oneof=gemini claude openai"`
		Model       string        `yaml:"model"`
		Temperature float32       `yaml:"temperature" default:"0.3"`
		MaxTokens   int           `yaml:"max_tokens" default:"4096"`
		Timeout     time.Duration `yaml:"timeout" default:"120s"`
		GeminiKey   string        `yaml:"gemini_api_key"`
		ClaudeKey   string        `yaml:"anthropic_api_key"`
		OpenAIKey   string        `yaml:"openai_api_key"`
	} `yaml:"llm"`
	Cache struct {
		Backend  string `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"earnscan"`

		PoolSize        int           `yaml:"pool_size" default:"10" validate:"gte=1"`
		MinIdleConns    int           `yaml:"min_idle_conns" default:"2" validate:"gte=0"`
		PoolTimeout     time.Duration `yaml:"pool_timeout" default:"30s"`
		MemorySize      int           `yaml:"memory_size" default:"1000" validate:"gte=1"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"5m"`
		MemoryTTL       time.Duration `yaml:"memory_ttl" default:"1m"` // layered backend L1 lifetime
	} `yaml:"cache"`
	Queue struct {
		Workers    int           `yaml:"workers" default:"1" validate:"gte=1"`
		RetryLimit int           `yaml:"retry_limit" default:"2" validate:"gte=0"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"2m"`
	} `yaml:"queue"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"earnscan.analyses"`
		LogTopic     string   `yaml:"log_topic"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`

		MaxAttempts  int           `yaml:"max_attempts" default:"3" validate:"gte=1"`
		BatchSize    int           `yaml:"batch_size" default:"100" validate:"gte=1"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576" validate:"gte=1"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file and fills defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, then applies environment
// overrides and validates the result.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("VOLATILITY_API_KEY"); v != "" {
		c.Volatility.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.GeminiKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.ClaudeKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAIKey = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("UNIVERSE"); v != "" {
		c.Universe.Symbols = splitList(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Finnhub.APIKey == "" {
		return fmt.Errorf("finnhub.api_key is required")
	}
	if c.Pipeline.FinalTopK > c.Pipeline.PrescreenTopK {
		return fmt.Errorf("pipeline.final_top_k (%d) cannot exceed pipeline.prescreen_top_k (%d)",
			c.Pipeline.FinalTopK, c.Pipeline.PrescreenTopK)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// LLMKey returns the API key for the configured provider.
func (c *Config) LLMKey() string {
	switch c.LLM.Provider {
	case "claude":
		return c.LLM.ClaudeKey
	case "openai":
		return c.LLM.OpenAIKey
	default:
		return c.LLM.GeminiKey
	}
}
