package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DISCORD_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without token")
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("discord_token: from-file\nlog_level: debug\nchannels:\n  mod_log: \"111\"\ngames:\n  rounds: 4\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("MOD_LOG_CHANNEL_ID", "222")
	t.Setenv("PET_VALUES_CHANNEL_IDS", "a, b,,c")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DiscordToken != "from-file" {
		t.Fatalf("expected token from file, got %q", cfg.DiscordToken)
	}
	if cfg.Channels.ModLog != "222" {
		t.Fatalf("expected env override 222, got %q", cfg.Channels.ModLog)
	}
	if cfg.Games.Rounds != 4 {
		t.Fatalf("expected 4 rounds, got %d", cfg.Games.Rounds)
	}
	if cfg.Games.RoundSeconds != 20 {
		t.Fatalf("expected default round seconds, got %d", cfg.Games.RoundSeconds)
	}
	if len(cfg.Channels.PetValues) != 3 || cfg.Channels.PetValues[2] != "c" {
		t.Fatalf("unexpected pet channels: %v", cfg.Channels.PetValues)
	}
}

func TestNormalizeClampsTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Moderation.MaxTimeoutDays = 90
	cfg.Prefixes = nil
	normalize(&cfg)
	if cfg.Moderation.MaxTimeoutDays != 28 {
		t.Fatalf("expected 28, got %d", cfg.Moderation.MaxTimeoutDays)
	}
	if len(cfg.Prefixes) != 1 {
		t.Fatalf("expected default prefix, got %v", cfg.Prefixes)
	}
}
