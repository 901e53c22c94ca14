package handoff

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/LikkleOra/TrimTime/internal/metrics"
)

// TelegramNotifier pushes the booking summary to the operator's Telegram
// chat so the barber sees new bookings without opening the app.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

// NewTelegramNotifier authorizes the bot and targets the given chat.
func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	logger.Info().Str("bot", api.Self.UserName).Int64("chat_id", chatID).Msg("telegram notifier ready")
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) Dispatch(_ context.Context, s Summary) error {
	notes := s.Notes
	if notes == "" {
		notes = "None"
	}
	text := fmt.Sprintf("New booking\n\n%s — %s %s\nService: %s ($%.0f, %d min)\nNotes: %s",
		s.CustomerName,
		s.Date,
		s.Time,
		s.Service.Name,
		s.Service.Price,
		s.Service.Duration,
		notes,
	)

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error().Err(err).Msg("telegram notify failed")
		return fmt.Errorf("send telegram notification: %w", err)
	}
	metrics.IncHandoffDispatched("telegram")
	return nil
}
