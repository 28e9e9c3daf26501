package discord

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/hectorgimenez/beltkeeper/internal/event"
)

type Bot struct {
	session   *discordgo.Session
	channelID string
	logger    *slog.Logger
}

func NewBot(token, channelID string, logger *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}

	return &Bot{session: session, channelID: channelID, logger: logger}, nil
}

// Start keeps the discord session open until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening discord session: %w", err)
	}
	b.logger.Info("Discord notifications enabled", slog.String("channel", b.channelID))

	<-ctx.Done()

	return b.session.Close()
}

func (b *Bot) Handle(_ context.Context, e event.Event) error {
	if !shouldNotify(e) {
		return nil
	}

	content := fmt.Sprintf("%s: %s", e.Supervisor(), e.Message())
	if e.Image() == nil {
		_, err := b.session.ChannelMessageSend(b.channelID, content)
		return err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, e.Image(), &jpeg.Options{Quality: 80}); err != nil {
		return err
	}
	_, err := b.session.ChannelMessageSendComplex(b.channelID, &discordgo.MessageSend{
		Content: content,
		Files:   []*discordgo.File{{Name: "belt.jpeg", ContentType: "image/jpeg", Reader: buf}},
	})

	return err
}

// Only belt scans, they carry the belt capture. Used potions and the other scans would flood the channel.
func shouldNotify(e event.Event) bool {
	switch evt := e.(type) {
	case event.ScanCompletedEvent:
		return evt.Source == event.SourceBelt
	case event.RestockNeededEvent:
		return true
	}

	return false
}
