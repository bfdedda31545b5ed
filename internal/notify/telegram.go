package notify

import (
	"context"
	"fmt"
	"strings"

	"investment-platform/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier tells the back office about withdrawal activity
type Notifier interface {
	WithdrawalRequested(ctx context.Context, w *models.WithdrawalRequest, asset *models.AssetConfig)
	WithdrawalStatusChanged(ctx context.Context, w *models.WithdrawalRequest, from models.WithdrawalStatus)
}

// Nop drops every notification
type Nop struct{}

func (Nop) WithdrawalRequested(context.Context, *models.WithdrawalRequest, *models.AssetConfig) {}

func (Nop) WithdrawalStatusChanged(context.Context, *models.WithdrawalRequest, models.WithdrawalStatus) {
}

// sender is the part of tgbotapi.BotAPI we use
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts withdrawal events to an admin chat
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram returns Nop when token or chat id is empty
func NewTelegram(token string, chatID int64) (Notifier, error) {
	if token == "" || chatID == 0 {
		zap.L().Info("Telegram notifications disabled")
		return Nop{}, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}

	zap.L().Info("Telegram notifications enabled", zap.String("bot", bot.Self.UserName))
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		zap.L().Warn("Failed to send telegram notification", zap.Error(err))
	}
}

func (t *Telegram) WithdrawalRequested(_ context.Context, w *models.WithdrawalRequest, asset *models.AssetConfig) {
	symbol := ""
	if asset != nil {
		symbol = asset.Symbol + " (" + asset.Network + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "New withdrawal %s\n", w.Reference)
	fmt.Fprintf(&b, "User: %d\n", w.UserID)
	fmt.Fprintf(&b, "Amount: %s %s\n", w.Amount.String(), symbol)
	fmt.Fprintf(&b, "Fee: %s, net: %s\n", w.Fee.String(), w.NetAmount.String())
	fmt.Fprintf(&b, "To: %s", w.DestinationAddress)
	t.send(b.String())
}

func (t *Telegram) WithdrawalStatusChanged(_ context.Context, w *models.WithdrawalRequest, from models.WithdrawalStatus) {
	text := fmt.Sprintf("Withdrawal %s: %s -> %s", w.Reference, from, w.Status)
	if w.TxHash != "" {
		text += "\nTx: " + w.TxHash
	}
	if w.Status == models.WithdrawalManualIntervention {
		text += "\nManual intervention required"
	}
	t.send(text)
}
