package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://localhost:8080/api" {
			t.Errorf("expected base url http://localhost:8080/api, got %s", config.API.BaseURL)
		}

		if config.Stream.URL != "ws://localhost:8080/api/ws/websocket" {
			t.Errorf("unexpected stream url %s", config.Stream.URL)
		}

		if config.Stream.ReconnectDelay() != 5*time.Second {
			t.Errorf("expected reconnect delay 5s, got %s", config.Stream.ReconnectDelay())
		}

		if config.Session.Store != StoreKeyring {
			t.Errorf("expected keyring store, got %s", config.Session.Store)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://films.example.com/api"
timeout_seconds = 3

[session]
store = "database"

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://films.example.com/api" {
			t.Errorf("unexpected base url %s", config.API.BaseURL)
		}
		if config.API.Timeout() != 3*time.Second {
			t.Errorf("expected timeout 3s, got %s", config.API.Timeout())
		}
		if config.Stream.URL != DefaultConfig().Stream.URL {
			t.Errorf("missing keys should keep defaults, got stream url %q", config.Stream.URL)
		}
		if config.Session.Store != StoreDatabase {
			t.Errorf("expected database store, got %s", config.Session.Store)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "empty base url", mutate: func(c *Config) { c.API.BaseURL = "" }},
			{name: "empty stream url", mutate: func(c *Config) { c.Stream.URL = "" }},
			{name: "unknown store", mutate: func(c *Config) { c.Session.Store = "vault" }},
			{name: "database store without path", mutate: func(c *Config) {
				c.Session.Store = StoreDatabase
				c.Database.Path = ""
			}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("Duration Fallbacks", func(t *testing.T) {
		var api APIConfig
		if api.Timeout() != 10*time.Second {
			t.Errorf("expected 10s fallback, got %s", api.Timeout())
		}
		var stream StreamConfig
		if stream.ReconnectDelay() != 5*time.Second {
			t.Errorf("expected 5s fallback, got %s", stream.ReconnectDelay())
		}
	})
}
