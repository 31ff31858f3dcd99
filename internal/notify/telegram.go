package notify

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink pushes fire events to a Telegram chat.
type TelegramSink struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSink connects to the Bot API with the given token. Delivery
// goes to a single fixed chat.
func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	return &TelegramSink{api: api, chatID: chatID}, nil
}

func (s *TelegramSink) NotifyFired(_ context.Context, ev Event) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 <b>%s</b>", html.EscapeString(strings.TrimSpace(ev.Title))))
	if ev.Body != "" {
		sb.WriteString(fmt.Sprintf("\n%s", html.EscapeString(strings.TrimSpace(ev.Body))))
	}

	msg := tgbotapi.NewMessage(s.chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.api.Send(msg); err != nil {
		log.Printf("telegram delivery failed for %s: %v", ev.ReminderID, err)
	}
}
