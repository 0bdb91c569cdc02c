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

		if config.Database.Path != "./amzx.db" {
			t.Errorf("expected database path ./amzx.db, got %s", config.Database.Path)
		}

		if config.Migration.PageDelay != "500ms" {
			t.Errorf("expected page delay 500ms, got %s", config.Migration.PageDelay)
		}

		if config.Migration.BatchSize != 100 {
			t.Errorf("expected batch size 100, got %d", config.Migration.BatchSize)
		}

		if config.Migration.Strategy != "fixed" {
			t.Errorf("expected fixed strategy, got %s", config.Migration.Strategy)
		}

		if config.Credentials.Spotify.BaseURL != "https://api.spotify.com/v1" {
			t.Errorf("expected spotify base URL, got %s", config.Credentials.Spotify.BaseURL)
		}

		if config.Migration.Public {
			t.Error("expected migrated playlists to be private by default")
		}
	})

	t.Run("default intervals", func(t *testing.T) {
		config := DefaultConfig()

		page, err := config.Migration.PageInterval()
		if err != nil {
			t.Fatalf("PageInterval() error = %v", err)
		}
		if page != 500*time.Millisecond {
			t.Errorf("expected 500ms page delay, got %v", page)
		}

		batch, err := config.Migration.BatchInterval()
		if err != nil {
			t.Fatalf("BatchInterval() error = %v", err)
		}
		if batch != 10*time.Second {
			t.Errorf("expected 10s batch delay, got %v", batch)
		}

		timeout, err := config.HTTP.ClientTimeout()
		if err != nil {
			t.Fatalf("ClientTimeout() error = %v", err)
		}
		if timeout != 0 {
			t.Errorf("expected no timeout, got %v", timeout)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(*MigrationConfig)
			wantErr error
		}{
			{name: "defaults are valid", mutate: func(*MigrationConfig) {}},
			{name: "zero batch size", mutate: func(m *MigrationConfig) { m.BatchSize = 0 }, wantErr: ErrInvalidBatchSize},
			{name: "batch size at the request limit", mutate: func(m *MigrationConfig) { m.BatchSize = MaxBatchSize }},
			{name: "batch size over the request limit", mutate: func(m *MigrationConfig) { m.BatchSize = 500 }, wantErr: ErrInvalidBatchSize},
			{name: "unparseable delay", mutate: func(m *MigrationConfig) { m.BatchDelay = "soon" }, wantErr: ErrInvalidConfig},
			{name: "negative delay", mutate: func(m *MigrationConfig) { m.PageDelay = "-1s" }, wantErr: ErrInvalidConfig},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				m := DefaultConfig().Migration
				tt.mutate(&m)
				err := m.Validate()

				if tt.wantErr == nil {
					if err != nil {
						t.Errorf("expected no error, got %v", err)
					}
					return
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
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

[migration]
batch_size = 25
batch_delay = "2s"

[credentials.amazon]
token = "amazon_token"
api_key = "amazon_key"

[credentials.spotify]
access_token = "spotify_token"
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

		if config.Migration.BatchSize != 25 {
			t.Errorf("expected batch size 25, got %d", config.Migration.BatchSize)
		}

		if config.Migration.PageDelay != "500ms" {
			t.Errorf("expected page delay to keep default 500ms, got %s", config.Migration.PageDelay)
		}

		if config.Credentials.Amazon.APIKey != "amazon_key" {
			t.Errorf("expected amazon api key amazon_key, got %s", config.Credentials.Amazon.APIKey)
		}

		if config.Credentials.Spotify.AccessToken != "spotify_token" {
			t.Errorf("expected spotify access token, got %s", config.Credentials.Spotify.AccessToken)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(EnvAmazonToken, "env-amazon-token")
		t.Setenv(EnvSpotifyRefreshToken, "env-refresh")
		t.Setenv(EnvSpotifyClientID, "")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Amazon.Token != "env-amazon-token" {
			t.Errorf("expected amazon token from env, got %s", config.Credentials.Amazon.Token)
		}
		if config.Credentials.Spotify.RefreshToken != "env-refresh" {
			t.Errorf("expected refresh token from env, got %s", config.Credentials.Spotify.RefreshToken)
		}
		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected empty env var to keep file value, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		const name = "AMZX_TEST_LOAD_ENV"
		t.Cleanup(func() { os.Unsetenv(name) })

		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte(name+"=from-file\n"), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		if err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := os.Getenv(name); got != "from-file" {
			t.Errorf("expected variable from env file, got %q", got)
		}
	})

	t.Run("LoadEnv without files", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), "none.env")); err != nil {
			t.Errorf("expected missing files to be skipped, got %v", err)
		}
	})
}
