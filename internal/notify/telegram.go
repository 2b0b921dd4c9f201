// Package notify pushes moderation action events to a moderator chat.
// Alerts are operational convenience only; failures are logged and never
// reach the forum.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/subtools/showcasebot/internal/bus"
	"github.com/subtools/showcasebot/internal/config"
)

// TelegramBot is the slice of the bot API we use (allows mocking in tests).
type TelegramBot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetSelf() tgbotapi.User
}

// tgBotWrapper wraps tgbotapi.BotAPI to implement TelegramBot.
type tgBotWrapper struct {
	bot *tgbotapi.BotAPI
}

func (w *tgBotWrapper) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return w.bot.Send(c)
}

func (w *tgBotWrapper) GetSelf() tgbotapi.User {
	return w.bot.Self
}

// BotFactory creates TelegramBot instances (allows mocking).
type BotFactory func(token string) (TelegramBot, error)

var defaultBotFactory BotFactory = func(token string) (TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &tgBotWrapper{bot: bot}, nil
}

type Telegram struct {
	chatID int64
	bot    TelegramBot
}

func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	return NewTelegramWithFactory(cfg, defaultBotFactory)
}

// NewTelegramWithFactory creates a Telegram notifier with a custom bot
// factory (for testing).
func NewTelegramWithFactory(cfg config.TelegramConfig, factory BotFactory) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	bot, err := factory(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	log.Printf("[telegram] authorized as @%s", bot.GetSelf().UserName)
	return &Telegram{chatID: cfg.ChatID, bot: bot}, nil
}

// Notify formats and sends one action event. Send failures are logged only.
func (t *Telegram) Notify(evt bus.Event) {
	msg := tgbotapi.NewMessage(t.chatID, formatEvent(evt))
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[telegram] send failed: %v", err)
	}
}

func formatEvent(evt bus.Event) string {
	return fmt.Sprintf("%s: %q by u/%s\nhttps://www.reddit.com%s",
		evt.Action, evt.Title, evt.Author, evt.Permalink)
}
