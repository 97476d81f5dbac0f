package model

import (
	"strings"
	"time"
)

// Config is the complete credpub configuration
type Config struct {
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
}

// RegistryConfig identifies the target registry environment
type RegistryConfig struct {
	// BaseURL is the registry base against which canonical identifiers
	// are minted, e.g. https://registry.example.org
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Context is the vocabulary context URL source documents must carry
	Context string `mapstructure:"context" yaml:"context"`

	// OrganizationCTID identifies the publishing organization on submissions
	OrganizationCTID string `mapstructure:"organization_ctid" yaml:"organization_ctid"`

	// APIKey authorizes publish submissions
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// ResourceURL returns the canonical identifier for a durable identifier
// in this environment
func (r RegistryConfig) ResourceURL(ctid string) string {
	return strings.TrimSuffix(r.BaseURL, "/") + "/resources/" + ctid
}

// HTTPConfig controls the fetch transport
type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	RatePerHost   float64       `mapstructure:"rate_per_host" yaml:"rate_per_host"`
	RateBurst     int           `mapstructure:"rate_burst" yaml:"rate_burst"`
	RespectRobots bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
}

// CacheConfig controls caching of fetched documents
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir       string        `mapstructure:"dir" yaml:"dir"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

// OutputConfig controls operator-facing output
type OutputConfig struct {
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			BaseURL: "https://sandbox.credentialengineregistry.org",
			Context: "https://credreg.net/ctdl/schema/context/json",
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "credpub/0.3 (+https://github.com/credpub/credpub)",
			MaxBodyBytes:  2_000_000,
			RatePerHost:   4,
			RateBurst:     4,
			RespectRobots: false,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
