package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hectorgimenez/beltkeeper/internal/event"
)

type Bot struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

func NewBot(token string, chatID int64, logger *slog.Logger) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %w", err)
	}
	logger.Info("Telegram notifications enabled", slog.String("bot", bot.Self.UserName))

	return &Bot{bot: bot, chatID: chatID, logger: logger}, nil
}

func (b *Bot) Handle(_ context.Context, e event.Event) error {
	if _, ok := e.(event.RestockNeededEvent); !ok {
		return nil
	}

	_, err := b.bot.Send(tgbotapi.NewMessage(b.chatID, fmt.Sprintf("%s: %s", e.Supervisor(), e.Message())))

	return err
}
