package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./ytfm.db" {
			t.Errorf("expected database path ./ytfm.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.YouTube.ProxyURL != "http://127.0.0.1:8080" {
			t.Errorf("expected youtube proxy URL http://127.0.0.1:8080, got %s", config.Credentials.YouTube.ProxyURL)
		}

		if config.Sync.HistoryLimit != 500 {
			t.Errorf("expected history limit 500, got %d", config.Sync.HistoryLimit)
		}

		if config.Sync.SpacingSeconds != 240 {
			t.Errorf("expected spacing 240, got %d", config.Sync.SpacingSeconds)
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

		testConfig := `[database]
path = "/custom/path.db"

[sync]
history_limit = 200

[credentials.lastfm]
api_key = "key"
api_secret = "secret"
username = "listener"
session_key = "sk"

[credentials.youtube]
proxy_url = "http://localhost:9090"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Sync.HistoryLimit != 200 {
			t.Errorf("expected history limit 200, got %d", config.Sync.HistoryLimit)
		}
		if config.Sync.SpacingSeconds != 240 {
			t.Errorf("expected default spacing to survive partial file, got %d", config.Sync.SpacingSeconds)
		}
		if config.Credentials.LastFM.SessionKey != "sk" {
			t.Errorf("expected session key sk, got %s", config.Credentials.LastFM.SessionKey)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig malformed file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig roundtrip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.LastFM.SessionKey = "new-session"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Credentials.LastFM.SessionKey != "new-session" {
			t.Errorf("expected saved session key, got %q", loaded.Credentials.LastFM.SessionKey)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		config := DefaultConfig()
		env := map[string]string{
			"YTFM_LASTFM_API_KEY":     "env-key",
			"YTFM_LASTFM_SESSION_KEY": "env-sk",
			"YTFM_YOUTUBE_PROXY_URL":  "  ",
		}
		config.ApplyEnv(func(k string) string { return env[k] })

		if config.Credentials.LastFM.APIKey != "env-key" {
			t.Errorf("expected api key override, got %s", config.Credentials.LastFM.APIKey)
		}
		if config.Credentials.LastFM.SessionKey != "env-sk" {
			t.Errorf("expected session key override, got %s", config.Credentials.LastFM.SessionKey)
		}
		if config.Credentials.YouTube.ProxyURL != "http://127.0.0.1:8080" {
			t.Errorf("blank variables must not override, got %s", config.Credentials.YouTube.ProxyURL)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Errorf("missing dotenv file should be ignored, got %v", err)
		}

		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("YTFM_TEST_DOTENV_VALUE=loaded\n"), 0644); err != nil {
			t.Fatalf("failed to write dotenv file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("YTFM_TEST_DOTENV_VALUE") })

		if err := LoadEnv(envPath); err != nil {
			t.Fatalf("failed to load dotenv file: %v", err)
		}
		if got := os.Getenv("YTFM_TEST_DOTENV_VALUE"); got != "loaded" {
			t.Errorf("expected dotenv value to be loaded, got %q", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.Credentials.LastFM.Password = ""
		config.Credentials.LastFM.SessionKey = ""

		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config.Credentials.LastFM.Password = "hunter2"
		if err := config.Validate(); err != nil {
			t.Errorf("expected password to satisfy validation, got %v", err)
		}

		config.Sync.HistoryLimit = -1
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for negative limit, got %v", err)
		}
	})
}
