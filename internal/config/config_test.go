package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if cfg.PullLimit != DefaultPullLimit {
		t.Errorf("pullLimit = %d, want %d", cfg.PullLimit, DefaultPullLimit)
	}
	if cfg.IgnoreOlderHours != DefaultIgnoreOlderHours {
		t.Errorf("ignoreOlderHours = %d, want %d", cfg.IgnoreOlderHours, DefaultIgnoreOlderHours)
	}
	if cfg.Warn.Message == "" || cfg.Remove.Message == "" || cfg.NudgeMessage == "" {
		t.Error("default messages should not be empty")
	}
	if cfg.Reddit.BaseURL != DefaultRedditBaseURL {
		t.Errorf("baseUrl = %q, want %q", cfg.Reddit.BaseURL, DefaultRedditBaseURL)
	}
	if !cfg.Heartbeat.Enabled {
		t.Error("heartbeat should be enabled by default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"subreddit": "gamedev",
		"flair": "Showcase",
		"warn": {"delayMinutes": 10, "message": "warn text"},
		"remove": {"delayMinutes": 30, "message": "remove text"},
		"pullLimit": 50,
		"debug": true
	}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHOWCASEBOT_REDDIT_TOKEN", "")
	t.Setenv("SHOWCASEBOT_TELEGRAM_TOKEN", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Subreddit != "gamedev" {
		t.Errorf("subreddit = %q, want %q", cfg.Subreddit, "gamedev")
	}
	if cfg.Warn.DelayMinutes != 10 {
		t.Errorf("warn delay = %d, want 10", cfg.Warn.DelayMinutes)
	}
	if cfg.PullLimit != 50 {
		t.Errorf("pullLimit = %d, want 50", cfg.PullLimit)
	}
	// untouched fields keep their defaults
	if cfg.SlowRecheckMinutes != DefaultSlowRecheckMinutes {
		t.Errorf("slowRecheckMinutes = %d, want default %d", cfg.SlowRecheckMinutes, DefaultSlowRecheckMinutes)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"reddit": {"accessToken": "from-file"}}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHOWCASEBOT_REDDIT_TOKEN", "from-env")
	t.Setenv("SHOWCASEBOT_TELEGRAM_CHAT_ID", "12345")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Reddit.AccessToken != "from-env" {
		t.Errorf("accessToken = %q, want env override", cfg.Reddit.AccessToken)
	}
	if cfg.Telegram.ChatID != 12345 {
		t.Errorf("chatId = %d, want 12345", cfg.Telegram.ChatID)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault error: %v", err)
	}
	if err := WriteDefault(path); err == nil {
		t.Error("expected error when config file already exists")
	}
	t.Setenv("SHOWCASEBOT_REDDIT_TOKEN", "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of written default: %v", err)
	}
	if cfg.PullLimit != DefaultPullLimit {
		t.Errorf("round-tripped pullLimit = %d, want %d", cfg.PullLimit, DefaultPullLimit)
	}
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Subreddit = "gamedev"
	cfg.Flair = "Showcase"
	cfg.Reddit.AccessToken = "tok"
	return cfg
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name  string
		mutate func(*Config)
	}{
		{"missing subreddit", func(c *Config) { c.Subreddit = "" }},
		{"missing flair", func(c *Config) { c.Flair = "" }},
		{"missing token", func(c *Config) { c.Reddit.AccessToken = "" }},
		{"zero warn delay", func(c *Config) { c.Warn.DelayMinutes = 0 }},
		{"remove before warn", func(c *Config) { c.Remove.DelayMinutes = c.Warn.DelayMinutes }},
		{"missing warn message", func(c *Config) { c.Warn.Message = "" }},
		{"pull limit too big", func(c *Config) { c.PullLimit = 500 }},
		{"zero horizon", func(c *Config) { c.IgnoreOlderHours = 0 }},
		{"telegram without token", func(c *Config) { c.Telegram.Enabled = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warn.DelayMinutes = 15
	cfg.Remove.DelayMinutes = 60
	cfg.IgnoreOlderHours = 12
	cfg.MinDelaySeconds = 15

	if got, want := cfg.WarnDelay(), 15*time.Minute; got != want {
		t.Errorf("WarnDelay = %v, want %v", got, want)
	}
	if got, want := cfg.RemoveDelay(), time.Hour; got != want {
		t.Errorf("RemoveDelay = %v, want %v", got, want)
	}
	if got, want := cfg.IgnoreOlder(), 12*time.Hour; got != want {
		t.Errorf("IgnoreOlder = %v, want %v", got, want)
	}
	if got, want := cfg.MinDelay(), 15*time.Second; got != want {
		t.Errorf("MinDelay = %v, want %v", got, want)
	}
}
