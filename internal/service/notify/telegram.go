package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"TradePulse/internal/domain/models"
)

// TelegramNotifier delivers notifications to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a Telegram notifier. Creation validates the
// token against the Bot API.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Notify(_ context.Context, kind string, payload any) error {
	msg := tgbotapi.NewMessage(n.chatID, formatMessage(kind, payload))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatMessage(kind string, payload any) string {
	switch p := payload.(type) {
	case *models.Trade:
		switch kind {
		case "trade_opened":
			return fmt.Sprintf("OPEN %s %s via %s (groups %s)",
				p.Symbol, strings.ToUpper(string(p.Direction)), p.Combination, joinGroups(p.Groups))
		case "trade_closed":
			return fmt.Sprintf("CLOSE %s %s (%s)", p.Symbol, strings.ToUpper(string(p.Direction)), p.CloseReason)
		}
	case *models.TradeEvent:
		if kind == "trend_flip" {
			return fmt.Sprintf("TREND %s now %s", p.Symbol, strings.ToUpper(string(p.Direction)))
		}
	}
	return fmt.Sprintf("%s: %v", kind, payload)
}

func joinGroups(groups []int) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = fmt.Sprintf("%d", g)
	}
	return strings.Join(parts, ",")
}
