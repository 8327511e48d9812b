package notifier

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// TelegramBot posts budget alerts to one operator chat.
type TelegramBot struct {
	sender messageSender
	chatID int64
}

func NewTelegramBot(token string, chatID int64) (*TelegramBot, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return NewTelegramBotWithSender(bot, chatID), nil
}

func NewTelegramBotWithSender(sender messageSender, chatID int64) *TelegramBot {
	return &TelegramBot{
		sender: sender,
		chatID: chatID,
	}
}

func (b *TelegramBot) SendBudgetAlert(ctx context.Context, alert entity.BudgetAlert) (entity.NotificationReceipt, error) {
	msg := tu.Message(
		tu.ID(b.chatID),
		FormatBudgetAlert(alert),
	).WithParseMode(telego.ModeHTML)

	sent, err := b.sender.SendMessage(ctx, msg)
	if err != nil {
		return entity.NotificationReceipt{}, fmt.Errorf("send message: %w", err)
	}

	return entity.NotificationReceipt{
		Success:        true,
		NotificationID: strconv.Itoa(sent.MessageID),
	}, nil
}

// SendText sends a plain text message.
func (b *TelegramBot) SendText(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(b.chatID), text)

	_, err := b.sender.SendMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func FormatBudgetAlert(alert entity.BudgetAlert) string {
	var sb strings.Builder

	sb.WriteString("⚠️ <b>Budget reallocated</b>\n\n")
	sb.WriteString(fmt.Sprintf("💸 <b>Moved per platform:</b> %.2f\n", alert.Amount))
	sb.WriteString("📉 <b>Underperforming:</b>\n")

	platforms := make([]value.Platform, len(alert.Platforms))
	copy(platforms, alert.Platforms)
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })

	for _, p := range platforms {
		sb.WriteString(fmt.Sprintf("  • <code>%s</code> efficiency %.3f\n",
			html.EscapeString(p.String()), alert.Efficiencies[p]))
	}

	return sb.String()
}
