package model

import (
	"errors"
	"fmt"
	"time"
)

// Config is the complete LinkGuard configuration
type Config struct {
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Lists       ListsConfig       `yaml:"lists" mapstructure:"lists"`
	Detect      DetectConfig      `yaml:"detect" mapstructure:"detect"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics" mapstructure:"diagnostics"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Stats       StatsConfig       `yaml:"stats" mapstructure:"stats"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// CacheConfig controls result cache lifetime and size
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Capacity      int           `yaml:"capacity" mapstructure:"capacity"`
	EvictBatch    int           `yaml:"evict_batch" mapstructure:"evict_batch"`       // Entries dropped when capacity is exceeded
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"` // Period of the active expiry pass
}

// ScoringConfig holds severity weights and verdict thresholds
type ScoringConfig struct {
	Weights    WeightsConfig    `yaml:"weights" mapstructure:"weights"`
	Thresholds ThresholdsConfig `yaml:"thresholds" mapstructure:"thresholds"`
}

// WeightsConfig maps each severity to its score contribution
type WeightsConfig struct {
	High   int `yaml:"high" mapstructure:"high"`
	Medium int `yaml:"medium" mapstructure:"medium"`
	Low    int `yaml:"low" mapstructure:"low"`
}

// ThresholdsConfig is the minimum score for each non-safe verdict
type ThresholdsConfig struct {
	Danger  int `yaml:"danger" mapstructure:"danger"`
	Warning int `yaml:"warning" mapstructure:"warning"`
}

// ListsConfig holds the policy lists consulted by detectors
type ListsConfig struct {
	KnownDomains []string `yaml:"known_domains" mapstructure:"known_domains"`
	AbusedTLDs   []string `yaml:"abused_tlds" mapstructure:"abused_tlds"` // With leading dot
	Brands       []string `yaml:"brands" mapstructure:"brands"`
	Keywords     []string `yaml:"keywords" mapstructure:"keywords"`
	Shorteners   []string `yaml:"shorteners" mapstructure:"shorteners"`
}

// DetectConfig holds numeric detector limits
type DetectConfig struct {
	MaxSubdomainLabels int     `yaml:"max_subdomain_labels" mapstructure:"max_subdomain_labels"`
	TyposquatDistance  int     `yaml:"typosquat_distance" mapstructure:"typosquat_distance"`
	EntropyBits        float64 `yaml:"entropy_bits" mapstructure:"entropy_bits"`
	EntropyMinLength   int     `yaml:"entropy_min_length" mapstructure:"entropy_min_length"`
	MaxURLLength       int     `yaml:"max_url_length" mapstructure:"max_url_length"`
}

// DiagnosticsConfig controls what gets reported as slow
type DiagnosticsConfig struct {
	SlowAnalysis time.Duration `yaml:"slow_analysis" mapstructure:"slow_analysis"`
}

// ServerConfig configures the HTTP service
type ServerConfig struct {
	Addr              string  `yaml:"addr" mapstructure:"addr"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Per client
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// StatsConfig configures persisted counters
type StatsConfig struct {
	Path          string        `yaml:"path" mapstructure:"path"` // SQLite file; empty keeps counters in memory
	FlushInterval time.Duration `yaml:"flush_interval" mapstructure:"flush_interval"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the built-in policy
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			TTL:           24 * time.Hour,
			Capacity:      1000,
			EvictBatch:    100,
			SweepInterval: 60 * time.Minute,
		},
		Scoring: ScoringConfig{
			Weights:    WeightsConfig{High: 40, Medium: 20, Low: 5},
			Thresholds: ThresholdsConfig{Danger: 40, Warning: 20},
		},
		Lists: ListsConfig{
			KnownDomains: []string{
				"google.com",
				"microsoft.com",
				"apple.com",
				"amazon.com",
				"paypal.com",
				"facebook.com",
				"twitter.com",
				"linkedin.com",
				"github.com",
				"stackoverflow.com",
			},
			AbusedTLDs: []string{".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top"},
			Brands: []string{
				"paypal",
				"amazon",
				"google",
				"microsoft",
				"apple",
				"facebook",
				"netflix",
				"github",
				"linkedin",
				"twitter",
				"instagram",
				"dropbox",
				"chase",
				"wellsfargo",
			},
			Keywords: []string{
				"login",
				"verify",
				"account",
				"secure",
				"update",
				"confirm",
				"banking",
				"paypal",
				"amazon",
				"microsoft",
			},
			Shorteners: []string{"bit.ly", "t.co", "tinyurl.com", "goo.gl", "ow.ly", "short.link"},
		},
		Detect: DetectConfig{
			MaxSubdomainLabels: 4,
			TyposquatDistance:  2,
			EntropyBits:        3.8,
			EntropyMinLength:   8,
			MaxURLLength:       200,
		},
		Diagnostics: DiagnosticsConfig{
			SlowAnalysis: 100 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Stats: StatsConfig{
			FlushInterval: time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
	}
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL))
	}
	if c.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity))
	}
	if c.Cache.EvictBatch <= 0 {
		errs = append(errs, fmt.Errorf("cache.evict_batch must be positive, got %d", c.Cache.EvictBatch))
	}
	if c.Scoring.Thresholds.Warning > c.Scoring.Thresholds.Danger {
		errs = append(errs, fmt.Errorf("scoring.thresholds.warning (%d) exceeds danger (%d)",
			c.Scoring.Thresholds.Warning, c.Scoring.Thresholds.Danger))
	}
	if c.Detect.TyposquatDistance < 0 {
		errs = append(errs, fmt.Errorf("detect.typosquat_distance must not be negative"))
	}
	return errors.Join(errs...)
}
