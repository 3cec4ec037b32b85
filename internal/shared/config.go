package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Credential store backends selectable through [SessionConfig.Store].
const (
	StoreKeyring  = "keyring"
	StoreDatabase = "database"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Stream   StreamConfig   `toml:"stream"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
}

// APIConfig contains REST settings for the catalog server.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second, 0 disables
}

// StreamConfig contains settings for the push notification connection.
type StreamConfig struct {
	URL                   string `toml:"url"`
	ReconnectDelaySeconds int    `toml:"reconnect_delay_seconds"`
	HeartbeatSendMS       int    `toml:"heartbeat_send_ms"`
	HeartbeatRecvMS       int    `toml:"heartbeat_recv_ms"`
}

// SessionConfig selects where the credential is persisted.
type SessionConfig struct {
	Store      string `toml:"store"`
	KeyringDir string `toml:"keyring_dir"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Timeout returns the REST timeout, defaulting to ten seconds.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ReconnectDelay returns the fixed delay between reconnect attempts, defaulting to five seconds.
func (c StreamConfig) ReconnectDelay() time.Duration {
	if c.ReconnectDelaySeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ReconnectDelaySeconds) * time.Second
}

// Heartbeat returns the STOMP heart-beat intervals.
func (c StreamConfig) Heartbeat() (send, recv time.Duration) {
	return time.Duration(c.HeartbeatSendMS) * time.Millisecond, time.Duration(c.HeartbeatRecvMS) * time.Millisecond
}

// Validate checks the fields that have no usable zero value.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if c.Stream.URL == "" {
		return fmt.Errorf("%w: stream.url is required", ErrInvalidConfig)
	}
	switch c.Session.Store {
	case StoreKeyring, StoreDatabase:
	default:
		return fmt.Errorf("%w: session.store must be %q or %q, got %q", ErrInvalidConfig, StoreKeyring, StoreDatabase, c.Session.Store)
	}
	if c.Session.Store == StoreDatabase && c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required for the database store", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
