package shared

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./flowsift.db" {
			t.Errorf("expected database path ./flowsift.db, got %s", config.Database.Path)
		}

		if config.Thresholds.MinTempo != 140.0 {
			t.Errorf("expected min tempo 140, got %f", config.Thresholds.MinTempo)
		}

		if config.Thresholds.MaxTempo != 900.0 {
			t.Errorf("expected max tempo 900, got %f", config.Thresholds.MaxTempo)
		}

		if config.Thresholds.MinLoudness != -7.0 {
			t.Errorf("expected min loudness -7, got %f", config.Thresholds.MinLoudness)
		}

		if config.Thresholds.MaxLoudness != 0.0 {
			t.Errorf("expected max loudness 0, got %f", config.Thresholds.MaxLoudness)
		}

		if config.Thresholds.MinEnergy != 0.85 {
			t.Errorf("expected min energy 0.85, got %f", config.Thresholds.MinEnergy)
		}

		if config.Thresholds.RequiredMode != 1 {
			t.Errorf("expected required mode 1, got %d", config.Thresholds.RequiredMode)
		}

		if config.Fetcher.BatchSize != 50 {
			t.Errorf("expected batch size 50, got %d", config.Fetcher.BatchSize)
		}

		if config.Fetcher.MaxAttempts != 3 {
			t.Errorf("expected max attempts 3, got %d", config.Fetcher.MaxAttempts)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
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

		custom := `
[thresholds]
min_tempo = 120.0
max_tempo = 200.0
min_loudness = -10.0
max_loudness = 0.0
min_energy = 0.5
required_mode = 0

[fetcher]
batch_size = 25
max_attempts = 5
backoff_seconds = 0.5
rate_limit = 2.0
workers = 2
`
		if err := os.WriteFile(configPath, []byte(custom), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Thresholds.MinTempo != 120.0 {
			t.Errorf("expected min tempo 120, got %f", config.Thresholds.MinTempo)
		}

		if config.Thresholds.RequiredMode != 0 {
			t.Errorf("expected required mode 0, got %d", config.Thresholds.RequiredMode)
		}

		if config.Fetcher.BatchSize != 25 {
			t.Errorf("expected batch size 25, got %d", config.Fetcher.BatchSize)
		}

		if _, err := LoadConfig(filepath.Join(tmpDir, "missing.toml")); err == nil {
			t.Error("loading a missing config should fail")
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		if err := config.Credentials.Spotify.Update(&oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
		}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if loaded.Credentials.Spotify.AccessToken != "access" {
			t.Errorf("access token should survive the round trip, got %q", loaded.Credentials.Spotify.AccessToken)
		}
		if token := loaded.Credentials.Spotify.Token(); token.RefreshToken != "refresh" {
			t.Errorf("unexpected rebuilt token %+v", token)
		}

		if err := config.Credentials.Spotify.Update(nil); err == nil {
			t.Error("updating with a nil token should fail")
		}
	})
}
