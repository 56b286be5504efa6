// ABOUTME: Configuration loading and parsing for the MCP demo server.
// ABOUTME: Supports YAML files with environment variable expansion and env overrides.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Tools    ToolsConfig    `yaml:"tools"`
	Stream   StreamConfig   `yaml:"stream"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP listen address.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// AuthConfig holds the shared MCP secret and the at-rest encryption key.
// The secret doubles as the HS256 signing key for bearer JWTs.
type AuthConfig struct {
	MCPSecret string `yaml:"mcp_secret"`
	MasterKey string `yaml:"master_key"`
}

// DatabaseConfig holds the SQLite file paths.
type DatabaseConfig struct {
	SnippetPath  string `yaml:"snippet_path"`
	UserDataPath string `yaml:"userdata_path"`
}

// ToolsConfig holds tool pack settings.
type ToolsConfig struct {
	ManifestPath   string `yaml:"manifest_path"`
	OpenAIKey      string `yaml:"openai_key"`
	O4MiniEndpoint string `yaml:"o4mini_endpoint"`
}

// StreamConfig holds streaming timing configuration.
type StreamConfig struct {
	HeartbeatInterval time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	HeartbeatIntervalRaw string `yaml:"heartbeat_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults mirror the zero-config demo setup: everything runs locally with
// throwaway credentials until real ones are provided.
const (
	defaultHTTPAddr          = ":8000"
	defaultMCPSecret         = "dev-secret"
	defaultMasterKey         = "default"
	defaultSnippetPath       = "snippets.sqlite3"
	defaultUserDataPath      = "user_data.db"
	defaultHeartbeatInterval = 15 * time.Second
)

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded, and a
// handful of well-known environment variables override whatever the file
// says. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			expanded := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnvOverrides lets the well-known environment variables win over the
// file. PORT carries only a port number, the rest are verbatim values.
func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.HTTPAddr = ":" + port
	}
	if v := os.Getenv("MCP_SECRET"); v != "" {
		cfg.Auth.MCPSecret = v
	}
	if v := os.Getenv("MASTER_KEY"); v != "" {
		cfg.Auth.MasterKey = v
	}
	if v := os.Getenv("SNIPPET_DB"); v != "" {
		cfg.Database.SnippetPath = v
	}
	if v := os.Getenv("USERDATA_DB"); v != "" {
		cfg.Database.UserDataPath = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Tools.OpenAIKey = v
	}
	if v := os.Getenv("O4MINI_ENDPOINT"); v != "" {
		cfg.Tools.O4MiniEndpoint = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = defaultHTTPAddr
	}
	if cfg.Auth.MCPSecret == "" {
		cfg.Auth.MCPSecret = defaultMCPSecret
	}
	if cfg.Auth.MasterKey == "" {
		cfg.Auth.MasterKey = defaultMasterKey
	}
	if cfg.Database.SnippetPath == "" {
		cfg.Database.SnippetPath = defaultSnippetPath
	}
	if cfg.Database.UserDataPath == "" {
		cfg.Database.UserDataPath = defaultUserDataPath
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Auth.MCPSecret == "" {
		return fmt.Errorf("auth.mcp_secret is required")
	}
	if c.Database.SnippetPath == "" {
		return fmt.Errorf("database.snippet_path is required")
	}
	if c.Database.UserDataPath == "" {
		return fmt.Errorf("database.userdata_path is required")
	}
	switch c.Logging.Format {
	case "text", "json", "color":
	default:
		return fmt.Errorf("logging.format must be text, json or color, got %q", c.Logging.Format)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	if cfg.Stream.HeartbeatIntervalRaw == "" {
		cfg.Stream.HeartbeatInterval = defaultHeartbeatInterval
		return nil
	}
	d, err := time.ParseDuration(cfg.Stream.HeartbeatIntervalRaw)
	if err != nil {
		return fmt.Errorf("parsing heartbeat_interval %q: %w", cfg.Stream.HeartbeatIntervalRaw, err)
	}
	if d <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive, got %s", d)
	}
	cfg.Stream.HeartbeatInterval = d
	return nil
}
