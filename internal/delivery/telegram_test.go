package delivery

import (
	"testing"

	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

func TestNewTelegramValidation(t *testing.T) {
	t.Parallel()
	if _, err := NewTelegram(TelegramConfig{ChatID: 1}, logx.Nop()); err == nil {
		t.Fatal("missing token must be rejected")
	}
	if _, err := NewTelegram(TelegramConfig{Token: "123:abc"}, logx.Nop()); err == nil {
		t.Fatal("missing chat_id must be rejected")
	}
}

func TestNewTelegramConstructsWithoutNetwork(t *testing.T) {
	t.Parallel()
	// Construction must not call the Telegram API: the announcer is
	// optional and an unreachable upstream cannot be allowed to block
	// startup. Token validity surfaces on the first send.
	tg, err := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: 42}, logx.Nop())
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
	if tg == nil {
		t.Fatal("nil announcer")
	}
}
