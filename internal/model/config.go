package model

import "time"

// Config is the complete globechat configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Data        DataConfig        `yaml:"data" mapstructure:"data"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Client      ClientConfig      `yaml:"client" mapstructure:"client"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the chat HTTP endpoint
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LLMConfig configures the generation backend
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // gemini, openai, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"` // empty = provider default
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"` // prefer GEMINI_API_KEY
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig configures memoization of identical prompts
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
}

// DataConfig points at the country statistics dataset
type DataConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // empty = embedded sample
}

// RateLimitConfig bounds chat requests per client
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// ConcurrencyConfig bounds batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ClientConfig configures the terminal client
type ClientConfig struct {
	ServerURL string        `yaml:"server_url" mapstructure:"server_url"` // empty = answer in-process
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Color     string        `yaml:"color" mapstructure:"color"` // auto, always, never
}

// LogConfig configures structured logging
type LogConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // dev, prod
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			},
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Timeout:     20,
			MaxTokens:   512,
			Temperature: 0.3,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        10 * time.Minute,
			MaxEntries: 1024,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             5,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Client: ClientConfig{
			Timeout: 30 * time.Second,
			Color:   "auto",
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}
