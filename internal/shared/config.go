package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Sync        SyncConfig        `toml:"sync"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	LastFM  LastFMConfig  `toml:"lastfm"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// LastFMConfig contains Last.fm API credentials.
//
// SessionKey is preferred when set; Password is only used to obtain one.
type LastFMConfig struct {
	APIKey     string `toml:"api_key"`
	APISecret  string `toml:"api_secret"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	SessionKey string `toml:"session_key"`
}

// YouTubeConfig contains YouTube Music proxy and Google OAuth settings.
type YouTubeConfig struct {
	ProxyURL         string `toml:"proxy_url"`
	HeadersPath      string `toml:"headers_path"`
	ClientSecretPath string `toml:"client_secret_path"`
	TokenPath        string `toml:"token_path"`
}

// SyncConfig contains history reconciliation settings.
type SyncConfig struct {
	HistoryLimit      int     `toml:"history_limit"`
	SpacingSeconds    int     `toml:"spacing_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	LockPath          string  `toml:"lock_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Map returns the Last.fm credentials in the map form accepted by the service constructors.
func (c LastFMConfig) Map() map[string]string {
	return map[string]string{
		"api_key":     c.APIKey,
		"api_secret":  c.APISecret,
		"username":    c.Username,
		"password":    c.Password,
		"session_key": c.SessionKey,
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes the config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads variables from a dotenv file into the process environment.
//
// A missing file is not an error. Variables already set are not overwritten.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// ApplyEnv overrides credentials with YTFM_* environment variables when they are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}

	overrides := []struct {
		key    string
		target *string
	}{
		{"YTFM_LASTFM_API_KEY", &c.Credentials.LastFM.APIKey},
		{"YTFM_LASTFM_API_SECRET", &c.Credentials.LastFM.APISecret},
		{"YTFM_LASTFM_USERNAME", &c.Credentials.LastFM.Username},
		{"YTFM_LASTFM_PASSWORD", &c.Credentials.LastFM.Password},
		{"YTFM_LASTFM_SESSION_KEY", &c.Credentials.LastFM.SessionKey},
		{"YTFM_YOUTUBE_PROXY_URL", &c.Credentials.YouTube.ProxyURL},
		{"YTFM_YOUTUBE_TOKEN_PATH", &c.Credentials.YouTube.TokenPath},
	}

	for _, o := range overrides {
		if v := strings.TrimSpace(getenv(o.key)); v != "" {
			*o.target = v
		}
	}
}

// Validate checks that the credentials needed for a sync are present.
func (c *Config) Validate() error {
	lfm := c.Credentials.LastFM
	var missing []string
	if lfm.APIKey == "" {
		missing = append(missing, "credentials.lastfm.api_key")
	}
	if lfm.APISecret == "" {
		missing = append(missing, "credentials.lastfm.api_secret")
	}
	if lfm.Username == "" {
		missing = append(missing, "credentials.lastfm.username")
	}
	if lfm.SessionKey == "" && lfm.Password == "" {
		missing = append(missing, "credentials.lastfm.session_key or credentials.lastfm.password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if c.Credentials.YouTube.ProxyURL == "" {
		return fmt.Errorf("%w: credentials.youtube.proxy_url is empty", ErrInvalidConfig)
	}
	if c.Sync.HistoryLimit < 0 {
		return fmt.Errorf("%w: sync.history_limit must not be negative", ErrInvalidConfig)
	}
	if c.Sync.SpacingSeconds < 0 {
		return fmt.Errorf("%w: sync.spacing_seconds must not be negative", ErrInvalidConfig)
	}
	return nil
}
