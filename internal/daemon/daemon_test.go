package daemon

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/subtools/showcasebot/internal/config"
	"github.com/subtools/showcasebot/internal/notify"
	"github.com/subtools/showcasebot/internal/reddit"
	"github.com/subtools/showcasebot/internal/tracker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// idleGateway serves an empty, healthy forum.
type idleGateway struct{}

func (idleGateway) Me(ctx context.Context) (reddit.Identity, error) {
	return reddit.Identity{Name: "showcasebot"}, nil
}
func (idleGateway) ListNewPosts(ctx context.Context, subreddit string, limit int) ([]*reddit.Post, error) {
	return nil, nil
}
func (idleGateway) ListModLog(ctx context.Context, subreddit, action, moderator string, limit int) ([]reddit.ModAction, error) {
	return nil, nil
}
func (idleGateway) FetchPost(ctx context.Context, id string) (*reddit.Post, error) {
	return nil, reddit.ErrNotFound
}
func (idleGateway) ResolvePermalink(ctx context.Context, permalink string) (*reddit.Post, error) {
	return nil, reddit.ErrNotFound
}
func (idleGateway) LoadMoreReplies(ctx context.Context, postFullname string, parent *reddit.Comment, maxPages int) error {
	return nil
}
func (idleGateway) Reply(ctx context.Context, parentFullname, text string) (*reddit.Comment, error) {
	return &reddit.Comment{}, nil
}
func (idleGateway) Distinguish(ctx context.Context, commentFullname string, sticky bool) error {
	return nil
}
func (idleGateway) DeleteComment(ctx context.Context, commentFullname string) error { return nil }
func (idleGateway) RemovePost(ctx context.Context, postFullname string) error       { return nil }
func (idleGateway) SendRemovalMessage(ctx context.Context, postFullname, text string) error {
	return nil
}
func (idleGateway) ApprovePost(ctx context.Context, postFullname string) error { return nil }

var _ tracker.Gateway = idleGateway{}

type noopBot struct{}

func (noopBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) { return tgbotapi.Message{}, nil }
func (noopBot) GetSelf() tgbotapi.User                              { return tgbotapi.User{UserName: "test_bot"} }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Subreddit = "gamedev"
	cfg.Flair = "Showcase"
	cfg.Reddit.AccessToken = "tok"
	cfg.Heartbeat.Enabled = false
	cfg.MetricsListen = ""
	return cfg
}

func TestRun_ShutsDownOnSignal(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	d, err := NewWithOptions(testConfig(), Options{
		Gateway:    idleGateway{},
		SignalChan: sigCh,
	})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}

	sigCh <- syscall.SIGTERM

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run after signal = %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not shut down on signal")
	}
}

func TestNewWithOptions_TelegramSubscribed(t *testing.T) {
	cfg := testConfig()
	cfg.Telegram.Enabled = true
	cfg.Telegram.Token = "tok"
	cfg.Telegram.ChatID = 42

	factory := func(token string) (notify.TelegramBot, error) { return noopBot{}, nil }
	d, err := NewWithOptions(cfg, Options{Gateway: idleGateway{}, BotFactory: factory})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}
	if d.bus == nil || d.trk == nil {
		t.Error("daemon wiring incomplete")
	}
}

func TestNewWithOptions_HeartbeatDefaultSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Heartbeat.Enabled = true
	cfg.Heartbeat.Schedule = ""

	d, err := NewWithOptions(cfg, Options{Gateway: idleGateway{}})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}
	if d.hb == nil {
		t.Error("heartbeat service should be constructed when enabled")
	}
}
