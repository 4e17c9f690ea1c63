package notify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
)

// Notifier delivers operator messages. Delivery is fire-and-forget:
// failures are reported but never retried at this layer.
type Notifier interface {
	SendText(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, filename string, photo []byte, caption string) error
}

// TelegramNotifier sends to a single operator chat.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *logrus.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *logrus.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) SendText(ctx context.Context, text string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func (n *TelegramNotifier) SendPhoto(ctx context.Context, filename string, photo []byte, caption string) error {
	_, err := n.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: n.chatID,
		Photo: &tgmodels.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(photo),
		},
		Caption: caption,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram photo: %w", err)
	}
	return nil
}

// LogNotifier writes messages to the logger instead of a transport.
// Used when no bot token is configured.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendText(ctx context.Context, text string) error {
	n.logger.WithField("channel", "notify").Info(text)
	return nil
}

func (n *LogNotifier) SendPhoto(ctx context.Context, filename string, photo []byte, caption string) error {
	n.logger.WithFields(logrus.Fields{
		"channel":  "notify",
		"filename": filename,
		"bytes":    len(photo),
	}).Info("Photo notification")
	return nil
}
