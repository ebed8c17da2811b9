// Package config loads swapi-browser settings.
//
// Sources, lowest to highest precedence:
//  1. Built-in defaults
//  2. YAML configuration file
//  3. Environment variables
//  4. Command-line flags (applied by cmd/swapi-browser)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/swapi-client/pkg/category"
	"github.com/Sternrassler/swapi-client/pkg/client"
	"github.com/Sternrassler/swapi-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Client  client.Config  `yaml:"client"`
	Redis   RedisConfig    `yaml:"redis"`
	Log     logging.Config `yaml:"log"`
	Browser BrowserConfig  `yaml:"browser"`
	Server  ServerConfig   `yaml:"server"`
}

// RedisConfig locates the shared cache. An empty URL runs without Redis.
type RedisConfig struct {
	// URL is either host:port or a redis:// URL
	URL string `yaml:"url"`
}

// BrowserConfig configures the category coordinator.
type BrowserConfig struct {
	InitialCategory category.Category `yaml:"initial_category"`
	FetchTimeout    time.Duration     `yaml:"fetch_timeout"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Client: client.DefaultConfig(nil, "swapi-browser/0.1.0"),
		Redis: RedisConfig{
			URL: "",
		},
		Log: logging.Config{
			Level:  logging.LevelInfo,
			Pretty: false,
		},
		Browser: BrowserConfig{
			InitialCategory: category.Character,
			FetchTimeout:    30 * time.Second,
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the file at path (if any)
// and the environment. Without a path the standard locations are tried:
//   - .swapi-browser.yaml (current directory)
//   - ~/.config/swapi-browser/config.yaml
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		for _, candidate := range defaultPaths() {
			if _, err := os.Stat(candidate); err == nil {
				if err := loadFile(candidate, cfg); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultPaths() []string {
	paths := []string{".swapi-browser.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "swapi-browser", "config.yaml"))
	}
	return paths
}

// loadFile reads and parses a YAML config file.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnv applies environment variable overrides. Malformed numeric values
// are reported rather than ignored.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("SWAPI_BASE_URL"); ok && v != "" {
		cfg.Client.BaseURL = v
	}
	if v, ok := lookup("USER_AGENT"); ok && v != "" {
		cfg.Client.UserAgent = v
	}
	if v, ok := lookup("REDIS_URL"); ok {
		cfg.Redis.URL = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = logging.LogLevel(v)
	}
	if v, ok := lookup("LOG_PRETTY"); ok && v != "" {
		cfg.Log.Pretty = parseBool(v)
	}
	if v, ok := lookup("SWAPI_INITIAL_CATEGORY"); ok && v != "" {
		c, err := category.Parse(v)
		if err != nil {
			return fmt.Errorf("SWAPI_INITIAL_CATEGORY: %w", err)
		}
		cfg.Browser.InitialCategory = c
	}
	if v, ok := lookup("SWAPI_FETCH_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SWAPI_FETCH_TIMEOUT: %w", err)
		}
		cfg.Browser.FetchTimeout = d
	}
	if v, ok := lookup("SWAPI_REQUESTS_PER_SECOND"); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SWAPI_REQUESTS_PER_SECOND: %w", err)
		}
		cfg.Client.RateLimit.RequestsPerSecond = rps
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// parseBool parses various boolean representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// Validate checks that the configuration can start the application.
func (c *Config) Validate() error {
	if c.Client.UserAgent == "" {
		return fmt.Errorf("client.user_agent is required")
	}
	if c.Client.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("client.rate_limit.requests_per_second must be >= 0 (got %v)", c.Client.RateLimit.RequestsPerSecond)
	}
	if err := logging.ValidateLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if !c.Browser.InitialCategory.Valid() {
		return fmt.Errorf("browser.initial_category: %w: %q", category.ErrInvalidCategory, c.Browser.InitialCategory)
	}
	if c.Browser.FetchTimeout < 0 {
		return fmt.Errorf("browser.fetch_timeout must be >= 0 (got %s)", c.Browser.FetchTimeout)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535 (got %d)", c.Server.Port)
	}
	if _, err := c.RedisOptions(); err != nil {
		return err
	}
	return nil
}

// RedisOptions converts the Redis URL into client options.
// Returns nil options when Redis is not configured.
func (c *Config) RedisOptions() (*redis.Options, error) {
	url := strings.TrimSpace(c.Redis.URL)
	if url == "" {
		return nil, nil
	}
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("redis.url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: url}, nil
}
