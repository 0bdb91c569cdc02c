package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Migration   MigrationConfig   `toml:"migration"`
	Database    DatabaseConfig    `toml:"database"`
	HTTP        HTTPConfig        `toml:"http"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Amazon  AmazonConfig  `toml:"amazon"`
	Spotify SpotifyConfig `toml:"spotify"`
}

// AmazonConfig contains Amazon Music API credentials.
type AmazonConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
	APIKey  string `toml:"api_key"`
}

// SpotifyConfig contains Spotify API credentials.
//
// Tokens are obtained outside amzx and pasted here; refresh_token with client credentials enables automatic refresh.
type SpotifyConfig struct {
	BaseURL      string `toml:"base_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// MaxBatchSize is the most tracks Spotify accepts in one add request.
const MaxBatchSize = 100

// MigrationConfig contains batching and pacing settings.
type MigrationConfig struct {
	PageDelay   string `toml:"page_delay"`
	BatchSize   int    `toml:"batch_size"`
	BatchDelay  string `toml:"batch_delay"`
	Strategy    string `toml:"strategy"`
	Description string `toml:"description"`
	Public      bool   `toml:"public"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// HTTPConfig contains outbound HTTP client settings.
type HTTPConfig struct {
	Timeout string `toml:"timeout"`
}

// PageInterval parses page_delay.
func (m MigrationConfig) PageInterval() (time.Duration, error) {
	return parseDelay("page_delay", m.PageDelay)
}

// BatchInterval parses batch_delay.
func (m MigrationConfig) BatchInterval() (time.Duration, error) {
	return parseDelay("batch_delay", m.BatchDelay)
}

// Validate checks sizes and delays.
func (m MigrationConfig) Validate() error {
	if m.BatchSize <= 0 || m.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidConfig, ErrInvalidBatchSize, m.BatchSize)
	}
	if _, err := m.PageInterval(); err != nil {
		return err
	}
	if _, err := m.BatchInterval(); err != nil {
		return err
	}
	return nil
}

// ClientTimeout parses the HTTP timeout; empty means no timeout.
func (h HTTPConfig) ClientTimeout() (time.Duration, error) {
	return parseDelay("timeout", h.Timeout)
}

func parseDelay(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, name, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
	}
	return d, nil
}

// Environment variables that override credentials from the config file.
const (
	EnvAmazonToken         = "AMZX_AMAZON_TOKEN"
	EnvAmazonAPIKey        = "AMZX_AMAZON_API_KEY"
	EnvSpotifyClientID     = "AMZX_SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "AMZX_SPOTIFY_CLIENT_SECRET"
	EnvSpotifyAccessToken  = "AMZX_SPOTIFY_ACCESS_TOKEN"
	EnvSpotifyRefreshToken = "AMZX_SPOTIFY_REFRESH_TOKEN"
)

// LoadEnv reads KEY=value pairs from dotenv files (".env" when none are given) into the
// process environment. Variables that are already set win; missing files are skipped.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overrides credentials with every non-empty AMZX_* variable.
func (c *Config) ApplyEnv() {
	overrides := map[string]*string{
		EnvAmazonToken:         &c.Credentials.Amazon.Token,
		EnvAmazonAPIKey:        &c.Credentials.Amazon.APIKey,
		EnvSpotifyClientID:     &c.Credentials.Spotify.ClientID,
		EnvSpotifyClientSecret: &c.Credentials.Spotify.ClientSecret,
		EnvSpotifyAccessToken:  &c.Credentials.Spotify.AccessToken,
		EnvSpotifyRefreshToken: &c.Credentials.Spotify.RefreshToken,
	}
	for name, dst := range overrides {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
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

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
