package delivery

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

type TelegramConfig struct {
	Token  string
	ChatID int64
}

// Telegram is a send-only announcement channel: one short summary message
// per run with new content. No poller is started.
type Telegram struct {
	bot    *tele.Bot
	chatID int64
	log    logx.Logger
}

func NewTelegram(cfg TelegramConfig, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram: token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram: chat_id is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	// Offline skips the getMe round-trip so a slow Telegram API cannot
	// block startup; a bad token surfaces on the first Announce instead.
	bot, err := tele.NewBot(tele.Settings{Token: cfg.Token, Offline: true})
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: bot, chatID: cfg.ChatID, log: log}, nil
}

func (t *Telegram) Announce(ctx context.Context, text string) error {
	// telebot sends don't take a context; respect cancellation up front.
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	_, err := t.bot.Send(tele.ChatID(t.chatID), text)
	if err != nil {
		return err
	}
	t.log.Debug("telegram announced",
		logx.Int64("chat_id", t.chatID),
		logx.Duration("took", time.Since(start)),
	)
	return nil
}
