package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// DefaultCodefreshURL is the public Codefresh API root
const DefaultCodefreshURL = "https://g.codefresh.io/api"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Codefresh CodefreshConfig `yaml:"codefresh"`
	API       APIConfig       `yaml:"api"`
	Job       JobConfig       `yaml:"job"`
	Events    EventsConfig    `yaml:"events"`
}

// ServerConfig represents the server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"` // Empty slice means allow all origins
	MaxBodySize    int64    `yaml:"max_body_size"`   // Maximum request body size in bytes (default: 1MB)
}

// DatabaseConfig selects where invocation history is kept
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite3, postgres or none
	Path   string `yaml:"path"`   // sqlite file path
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// Enabled reports whether invocations are recorded
func (d DatabaseConfig) Enabled() bool {
	return d.Driver != "none"
}

// CodefreshConfig holds the credential used against the Codefresh API.
// It is passed explicitly to every client; nothing keeps it globally.
type CodefreshConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"` // Optional; checked against the token owner by `check`
	Token    string `yaml:"token"`
	Timeout  int    `yaml:"timeout"` // Request timeout in seconds (default: 30)
}

// APIConfig represents the API configuration
type APIConfig struct {
	Keys []string `yaml:"keys"`
}

// JobConfig holds the default job identity used by `run`
type JobConfig struct {
	Service string `yaml:"service"`
	Branch  string `yaml:"branch"`
	Remote  string `yaml:"remote"` // git remote read from a checkout (default: origin)
}

// EventsConfig configures outcome event publishing
type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Load loads the configuration from the given file path.
// A missing file is tolerated when required is false, leaving env and defaults.
func Load(filePath string, required bool) (*Config, error) {
	config := &Config{}

	data, err := os.ReadFile(filePath) //nolint:gosec // Trusted file path input
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, err
	}

	// Apply environment variables
	applyEnvVars(config)

	// Set default values if not provided
	setDefaults(config)

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvVars applies environment variables to the configuration
func applyEnvVars(config *Config) {
	// Server configuration
	if port := os.Getenv("CFTRIGGER_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CFTRIGGER_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Database configuration
	if driver := os.Getenv("CFTRIGGER_DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if path := os.Getenv("CFTRIGGER_DATABASE_PATH"); path != "" {
		config.Database.Path = path
	}
	if dsn := os.Getenv("CFTRIGGER_DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	// Codefresh configuration
	if url := os.Getenv("CFTRIGGER_CODEFRESH_URL"); url != "" {
		config.Codefresh.URL = url
	}
	if username := os.Getenv("CFTRIGGER_CODEFRESH_USERNAME"); username != "" {
		config.Codefresh.Username = username
	}
	if token := os.Getenv("CFTRIGGER_CODEFRESH_TOKEN"); token != "" {
		config.Codefresh.Token = token
	}
	if timeout := os.Getenv("CFTRIGGER_CODEFRESH_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t > 0 {
			config.Codefresh.Timeout = t
		}
	}

	// API keys, comma separated
	if keys := os.Getenv("CFTRIGGER_API_KEYS"); keys != "" {
		config.API.Keys = splitList(keys)
	}

	// Job defaults
	if service := os.Getenv("CFTRIGGER_JOB_SERVICE"); service != "" {
		config.Job.Service = service
	}
	if branch := os.Getenv("CFTRIGGER_JOB_BRANCH"); branch != "" {
		config.Job.Branch = branch
	}
	if remote := os.Getenv("CFTRIGGER_JOB_REMOTE"); remote != "" {
		config.Job.Remote = remote
	}

	// Events
	if brokers := os.Getenv("CFTRIGGER_EVENTS_BROKERS"); brokers != "" {
		config.Events.Brokers = splitList(brokers)
	}
	if topic := os.Getenv("CFTRIGGER_EVENTS_TOPIC"); topic != "" {
		config.Events.Topic = topic
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.MaxBodySize == 0 {
		config.Server.MaxBodySize = 1 << 20 // 1MB default
	}

	// Database defaults
	if config.Database.Driver == "" {
		config.Database.Driver = "sqlite3"
	}
	if config.Database.Driver == "sqlite3" && config.Database.Path == "" {
		config.Database.Path = "./cftrigger.db"
	}

	// Codefresh defaults
	if config.Codefresh.URL == "" {
		config.Codefresh.URL = DefaultCodefreshURL
	}
	if config.Codefresh.Timeout == 0 {
		config.Codefresh.Timeout = 30 // 30 seconds default timeout
	}

	// Job defaults
	if config.Job.Remote == "" {
		config.Job.Remote = "origin"
	}

	// Events defaults
	if config.Events.Topic == "" {
		config.Events.Topic = "codefresh.builds"
	}
}

// GetLogLevel returns the log level from the environment
func GetLogLevel() string {
	levelStr := os.Getenv("CFTRIGGER_LOG_LEVEL")
	if levelStr == "" {
		return "info"
	}

	// Validate log level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if _, ok := validLevels[levelStr]; ok {
		return levelStr
	}

	return "info"
}

// GetLogFormat returns the log format from the environment: json or text
func GetLogFormat() string {
	if os.Getenv("CFTRIGGER_LOG_FORMAT") == "json" {
		return "json"
	}
	return "text"
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	// Validate server port
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be between 1 and 65535)", cfg.Server.Port)
	}

	// Validate max body size
	if cfg.Server.MaxBodySize < 0 {
		return fmt.Errorf("invalid server.max_body_size: %d (must be non-negative)", cfg.Server.MaxBodySize)
	}
	if cfg.Server.MaxBodySize > 100<<20 { // 100MB max
		return fmt.Errorf("invalid server.max_body_size: %d (must be less than 100MB)", cfg.Server.MaxBodySize)
	}

	// Validate database configuration
	switch cfg.Database.Driver {
	case "sqlite3", "none":
	case "postgres":
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database.driver: %q (must be sqlite3, postgres or none)", cfg.Database.Driver)
	}

	// Validate Codefresh configuration
	u, err := url.Parse(cfg.Codefresh.URL)
	if err != nil {
		return fmt.Errorf("invalid codefresh.url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid codefresh.url: %q (must be http or https)", cfg.Codefresh.URL)
	}
	if cfg.Codefresh.Token == "" {
		return fmt.Errorf("codefresh.token is required")
	}
	if cfg.Codefresh.Timeout < 0 {
		return fmt.Errorf("invalid codefresh.timeout: %d (must be non-negative)", cfg.Codefresh.Timeout)
	}

	return nil
}

// ValidateServer checks the settings only `serve` needs
func (c *Config) ValidateServer() error {
	if len(c.API.Keys) == 0 {
		return fmt.Errorf("at least one api.key is required")
	}
	for i, key := range c.API.Keys {
		if key == "" {
			return fmt.Errorf("api.keys[%d] cannot be empty", i)
		}
	}
	return nil
}
