package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Logging     LoggingConfig  `toml:"logging"`
	Storage     StorageConfig  `toml:"storage"`
	Scraper     ScraperConfig  `toml:"scraper"`
	AI          AIConfig       `toml:"ai"`
	GitHub      GitHubConfig   `toml:"github"`
	Video       VideoConfig    `toml:"video"`
	Registry    RegistryConfig `toml:"registry"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	Host           string   `toml:"host"`
	AllowedOrigins []string `toml:"allowed_origins"` // WebSocket origin whitelist (empty = allow all)
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
	Blobs  BlobsConfig  `toml:"blobs"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// BlobsConfig configures the filesystem blob store for uploads and videos
type BlobsConfig struct {
	Dir     string `toml:"dir"`      // Directory for stored blobs
	BaseURL string `toml:"base_url"` // Public URL prefix blobs are served under
}

// ScraperConfig contains enrichment web fetcher configuration
type ScraperConfig struct {
	UserAgent      string        `toml:"user_agent"`
	MaxConcurrency int           `toml:"max_concurrency"` // Counting semaphore size
	RequestDelay   time.Duration `toml:"request_delay"`   // Minimum spacing between request starts
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	MaxRetries     int           `toml:"max_retries"`   // Additional attempts on 429/timeout
	RetryBackoff   time.Duration `toml:"retry_backoff"` // Linear backoff unit, multiplied by the attempt number
	MaxContentLen  int           `toml:"max_content"`   // Extracted text truncation in characters
	BlockedHosts   []string      `toml:"blocked_hosts"` // Hosts known to block automated fetches
}

// AIConfig selects and configures the AI gateway backend
type AIConfig struct {
	Provider        string `toml:"provider"` // "gemini" or "anthropic"
	GoogleAPIKey    string `toml:"google_api_key"`
	AnthropicAPIKey string `toml:"anthropic_api_key"`
	TextModel       string `toml:"text_model"`
	VideoModel      string `toml:"video_model"`
	Timeout         string `toml:"timeout"` // Ceiling for a single gateway call, e.g. "10m"
}

// GitHubConfig configures the code-hosting enrichment connector
type GitHubConfig struct {
	MaxRepos  int `toml:"max_repos"`  // Recent repositories to inspect
	MaxEvents int `toml:"max_events"` // Recent events to count
}

// VideoConfig carries defaults for documentary video synthesis
type VideoConfig struct {
	Resolution       string `toml:"resolution"`
	AspectRatio      string `toml:"aspect_ratio"`
	SegmentSeconds   int    `toml:"segment_seconds"`
	FirstSegmentOnly bool   `toml:"first_segment_only"`
}

// RegistryConfig controls plan retention
type RegistryConfig struct {
	SweepInterval time.Duration `toml:"sweep_interval"` // How often terminal plans are swept
	MaxAge        time.Duration `toml:"max_age"`        // Age past completion before eviction
}

// DefaultConfig returns configuration defaults applied before file/env overrides
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{Path: "./data/odyssey"},
			Blobs:  BlobsConfig{Dir: "./data/blobs", BaseURL: "/files"},
		},
		Scraper: ScraperConfig{
			UserAgent:      "odyssey/" + Version,
			MaxConcurrency: 5,
			RequestDelay:   time.Second,
			ConnectTimeout: 10 * time.Second,
			RequestTimeout: 30 * time.Second,
			MaxRetries:     2,
			RetryBackoff:   2 * time.Second,
			MaxContentLen:  8000,
			BlockedHosts: []string{
				"linkedin.com", "www.linkedin.com",
				"facebook.com", "www.facebook.com",
				"instagram.com", "www.instagram.com",
				"twitter.com", "x.com",
				"glassdoor.com", "www.glassdoor.com",
			},
		},
		AI: AIConfig{
			Provider:   "gemini",
			TextModel:  "gemini-2.0-flash",
			VideoModel: "veo-2.0-generate-001",
			Timeout:    "10m",
		},
		GitHub: GitHubConfig{
			MaxRepos:  30,
			MaxEvents: 100,
		},
		Video: VideoConfig{
			Resolution:     "720p",
			AspectRatio:    "16:9",
			SegmentSeconds: 8,
		},
		Registry: RegistryConfig{
			SweepInterval: 10 * time.Minute,
			MaxAge:        30 * time.Minute,
		},
	}
}

// LoadConfig loads configuration from one or more TOML files, later files
// overriding earlier ones, then applies environment variable overrides.
func LoadConfig(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies ODYSSEY_-prefixed environment variables on top
// of file configuration.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("ODYSSEY_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("ODYSSEY_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("ODYSSEY_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("ODYSSEY_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("ODYSSEY_BLOBS_DIR"); v != "" {
		config.Storage.Blobs.Dir = v
	}
	if v := os.Getenv("ODYSSEY_AI_PROVIDER"); v != "" {
		config.AI.Provider = v
	}
	if v := os.Getenv("ODYSSEY_GOOGLE_API_KEY"); v != "" {
		config.AI.GoogleAPIKey = v
	}
	if v := os.Getenv("ODYSSEY_ANTHROPIC_API_KEY"); v != "" {
		config.AI.AnthropicAPIKey = v
	}
	if v := os.Getenv("ODYSSEY_ALLOWED_ORIGINS"); v != "" {
		config.Server.AllowedOrigins = strings.Split(v, ",")
	}
}

// Validate checks configuration invariants that would otherwise surface
// as confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.AI.Provider {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("invalid ai provider '%s': must be 'gemini' or 'anthropic'", c.AI.Provider)
	}
	if c.Scraper.MaxConcurrency < 1 {
		return fmt.Errorf("scraper max_concurrency must be at least 1")
	}
	if _, err := time.ParseDuration(c.AI.Timeout); err != nil {
		return fmt.Errorf("invalid ai timeout '%s': %w", c.AI.Timeout, err)
	}
	return nil
}
