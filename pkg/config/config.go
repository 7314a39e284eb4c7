// Package config loads the gateway configuration from YAML with environment
// fallbacks for secrets and connection addresses.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// maxConfigSize caps config files at 1MB to avoid accidental huge reads.
const maxConfigSize = 1 << 20

// Config represents the gateway configuration.
type Config struct {
	// Server ports
	GRPCPort int `yaml:"grpc_port"`
	HTTPPort int `yaml:"http_port"`

	// Inference provider
	OpenAIKey    string `yaml:"openai_key"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`

	// Redis connection
	Redis RedisConfig `yaml:"redis"`

	// Session lifecycle
	SessionTTLSeconds int `yaml:"session_ttl_seconds"`
	MaxHistoryLength  int `yaml:"max_history_length"`

	// Response cache
	CacheMaxSize    int `yaml:"cache_max_size"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	// Request pipeline
	MaxInputChars      int     `yaml:"max_input_chars"`
	HistoryWindow      int     `yaml:"history_window"`
	StoreTimeoutMS     int     `yaml:"store_timeout_ms"`
	RequestTimeoutMS   int     `yaml:"request_timeout_ms"`
	MaxConcurrentCalls int     `yaml:"max_concurrent_calls"`
	InferenceRPS       float64 `yaml:"inference_rps"`
	InferenceBurst     int     `yaml:"inference_burst"`

	// Session cleanup sweep schedule (cron expression).
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	PoolSize int    `yaml:"pool_size"`
}

// LoadConfig loads configuration from a YAML file, applies defaults, and
// fills secrets from the environment when the file leaves them empty.
func LoadConfig(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Default returns a configuration with every default applied and secrets
// taken from the environment. Used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.GRPCPort == 0 {
		c.GRPCPort = 50051
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.SessionTTLSeconds == 0 {
		c.SessionTTLSeconds = 1800
	}
	if c.MaxHistoryLength == 0 {
		c.MaxHistoryLength = 20
	}
	if c.CacheMaxSize == 0 {
		c.CacheMaxSize = 500
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 1800
	}
	if c.MaxInputChars == 0 {
		c.MaxInputChars = 5000
	}
	if c.HistoryWindow == 0 {
		c.HistoryWindow = 10
	}
	if c.StoreTimeoutMS == 0 {
		c.StoreTimeoutMS = 2000
	}
	if c.RequestTimeoutMS == 0 {
		c.RequestTimeoutMS = 30000
	}
	if c.MaxConcurrentCalls == 0 {
		c.MaxConcurrentCalls = 20
	}
	if c.InferenceRPS == 0 {
		c.InferenceRPS = 50
	}
	if c.InferenceBurst == 0 {
		c.InferenceBurst = 10
	}
	if c.CleanupSchedule == "" {
		c.CleanupSchedule = "@every 5m"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "chat:"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
}

func (c *Config) applyEnv() {
	if c.OpenAIKey == "" {
		c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = os.Getenv("REDIS_ADDR")
	}
	if c.Redis.Password == "" {
		c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("openai_key is required (or set OPENAI_API_KEY)")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required (or set REDIS_ADDR)")
	}
	return nil
}
