package model

import "time"

// Config holds all safelink settings
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Gate         GateConfig         `yaml:"gate" mapstructure:"gate"`
	Reputation   ReputationConfig   `yaml:"reputation" mapstructure:"reputation"`
	Heuristics   HeuristicsConfig   `yaml:"heuristics" mapstructure:"heuristics"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig configures outbound HTTP clients
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// GateConfig configures the domain existence gate
type GateConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
	AllowList    []string      `yaml:"allow_list,omitempty" mapstructure:"allow_list"` // Extra hosts that always pass
	CacheTTL     time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// ReputationConfig configures the remote reputation service
type ReputationConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "", "http", "openai", "anthropic", "ollama"
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Model    string `yaml:"model,omitempty" mapstructure:"model"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// HeuristicsConfig selects the signal strategy
type HeuristicsConfig struct {
	Mode         string        `yaml:"mode" mapstructure:"mode"` // "placeholder" or "live"
	WhoisTimeout time.Duration `yaml:"whois_timeout" mapstructure:"whois_timeout"`
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	Backend     string        `yaml:"backend" mapstructure:"backend"` // "memory", "disk", "postgres"
	Dir         string        `yaml:"dir" mapstructure:"dir"`
	DatabaseURL string        `yaml:"database_url,omitempty" mapstructure:"database_url"`
	MemoryTTL   time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
}

// ConcurrencyConfig configures batch workers
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig configures per-host request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64    `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int        `yaml:"burst_size" mapstructure:"burst_size"`
	Hosts             []HostRate `yaml:"hosts,omitempty" mapstructure:"hosts"` // Per-host overrides
}

// HostRate overrides the request rate for one host
type HostRate struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"`
}

// OutputConfig configures CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "Safelink/0.1 (+https://github.com/ppiankov/safelink)",
		},
		Gate: GateConfig{
			Enabled:      true,
			ProbeTimeout: 3 * time.Second,
			CacheTTL:     10 * time.Minute,
		},
		Reputation: ReputationConfig{
			Provider: "", // Disabled by default
			Timeout:  15,
		},
		Heuristics: HeuristicsConfig{
			Mode:         "placeholder",
			WhoisTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Backend:   "disk",
			Dir:       "~/.safelink/data",
			MemoryTTL: 30 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
	}
}
