package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultWarnDelayMinutes   = 15
	DefaultRemoveDelayMinutes = 60
	DefaultSlowRecheckMinutes = 30
	DefaultIgnoreOlderHours   = 12
	DefaultPullLimit          = 25
	DefaultMaxDelayMinutes    = 5
	DefaultMinDelaySeconds    = 15
	DefaultMorePages          = 4
	DefaultUserAgent          = "showcasebot/1.0"
	DefaultRedditBaseURL      = "https://oauth.reddit.com"
	DefaultHeartbeatSchedule  = "0 0 * * * *" // hourly, with seconds field
)

const (
	DefaultWarnMessage = "Hi! Posts with this flair must include a top-level " +
		"comment from the author describing the work. Please add one, or this " +
		"post will be removed."
	DefaultRemoveMessage = "Your post was removed because it did not receive " +
		"an author comment in time. Comment on the post and it will be restored."
	DefaultNudgeMessage = "Please post your description as a new top-level " +
		"comment, not as a reply to this one, so it is visible to readers."
)

type Config struct {
	Subreddit string `json:"subreddit"`
	Flair     string `json:"flair"`

	Warn         ActionConfig `json:"warn"`
	Remove       ActionConfig `json:"remove"`
	NudgeMessage string       `json:"nudgeMessage"`

	SlowRecheckMinutes int `json:"slowRecheckMinutes"`
	IgnoreOlderHours   int `json:"ignoreOlderHours"`
	PullLimit          int `json:"pullLimit"`
	MaxDelayMinutes    int `json:"maxDelayMinutes"`
	MinDelaySeconds    int `json:"minDelaySeconds"`
	MorePages          int `json:"morePages"`

	Reddit    RedditConfig    `json:"reddit"`
	Telegram  TelegramConfig  `json:"telegram"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`

	MetricsListen string `json:"metricsListen,omitempty"`
	Debug         bool   `json:"debug"`
}

type ActionConfig struct {
	DelayMinutes int    `json:"delayMinutes"`
	Message      string `json:"message"`
}

type RedditConfig struct {
	UserAgent   string `json:"userAgent"`
	AccessToken string `json:"accessToken"`
	BaseURL     string `json:"baseUrl,omitempty"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  int64  `json:"chatId"`
}

type HeartbeatConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Warn: ActionConfig{
			DelayMinutes: DefaultWarnDelayMinutes,
			Message:      DefaultWarnMessage,
		},
		Remove: ActionConfig{
			DelayMinutes: DefaultRemoveDelayMinutes,
			Message:      DefaultRemoveMessage,
		},
		NudgeMessage:       DefaultNudgeMessage,
		SlowRecheckMinutes: DefaultSlowRecheckMinutes,
		IgnoreOlderHours:   DefaultIgnoreOlderHours,
		PullLimit:          DefaultPullLimit,
		MaxDelayMinutes:    DefaultMaxDelayMinutes,
		MinDelaySeconds:    DefaultMinDelaySeconds,
		MorePages:          DefaultMorePages,
		Reddit: RedditConfig{
			UserAgent: DefaultUserAgent,
			BaseURL:   DefaultRedditBaseURL,
		},
		Heartbeat: HeartbeatConfig{
			Enabled:  true,
			Schedule: DefaultHeartbeatSchedule,
		},
	}
}

// Load reads the config file at path over the defaults and applies env
// overrides. The file must exist; use WriteDefault to create one.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHOWCASEBOT_REDDIT_TOKEN"); v != "" {
		cfg.Reddit.AccessToken = v
	}
	if v := os.Getenv("SHOWCASEBOT_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("SHOWCASEBOT_TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("SHOWCASEBOT_DEBUG"); v == "1" || v == "true" {
		cfg.Debug = true
	}
}

// WriteDefault writes a default config to path. Fails if the file exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Subreddit == "" {
		return fmt.Errorf("subreddit is required")
	}
	if c.Flair == "" {
		return fmt.Errorf("flair is required")
	}
	if c.Reddit.AccessToken == "" {
		return fmt.Errorf("reddit access token is required (config or SHOWCASEBOT_REDDIT_TOKEN)")
	}
	if c.Warn.DelayMinutes <= 0 {
		return fmt.Errorf("warn.delayMinutes must be positive")
	}
	if c.Remove.DelayMinutes <= c.Warn.DelayMinutes {
		return fmt.Errorf("remove.delayMinutes must be greater than warn.delayMinutes")
	}
	if c.Warn.Message == "" || c.Remove.Message == "" {
		return fmt.Errorf("warn and remove messages are required")
	}
	if c.PullLimit <= 0 || c.PullLimit > 100 {
		return fmt.Errorf("pullLimit must be between 1 and 100")
	}
	if c.IgnoreOlderHours <= 0 {
		return fmt.Errorf("ignoreOlderHours must be positive")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram enabled but token is missing")
	}
	return nil
}

func (c *Config) WarnDelay() time.Duration {
	return time.Duration(c.Warn.DelayMinutes) * time.Minute
}

func (c *Config) RemoveDelay() time.Duration {
	return time.Duration(c.Remove.DelayMinutes) * time.Minute
}

func (c *Config) SlowRecheck() time.Duration {
	return time.Duration(c.SlowRecheckMinutes) * time.Minute
}

func (c *Config) IgnoreOlder() time.Duration {
	return time.Duration(c.IgnoreOlderHours) * time.Hour
}

func (c *Config) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMinutes) * time.Minute
}

func (c *Config) MinDelay() time.Duration {
	return time.Duration(c.MinDelaySeconds) * time.Second
}
