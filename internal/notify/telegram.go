package notify

import (
	"context"
	"fmt"
	"strings"

	"yatrinivas/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// BotSender is the part of tgbotapi.BotAPI used for alerts.
type BotSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier forwards emails and booking alerts to admin chats.
type TelegramNotifier struct {
	bot     BotSender
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewTelegramNotifier(token string, chatIDs []int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return NewTelegramNotifierWithBot(bot, chatIDs, logger), nil
}

func NewTelegramNotifierWithBot(bot BotSender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs, logger: logger}
}

func (n *TelegramNotifier) broadcast(ctx context.Context, text string) error {
	var firstErr error
	for _, chatID := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send telegram alert")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SendEmail relays the message text to admin chats.
func (n *TelegramNotifier) SendEmail(ctx context.Context, msg Email) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✉️ %s\n", msg.Subject)
	if msg.From != "" {
		fmt.Fprintf(&sb, "From: %s\n", msg.From)
	}
	fmt.Fprintf(&sb, "To: %s\n\n%s", msg.To, msg.Body)
	return n.broadcast(ctx, sb.String())
}

// SendDocument uploads a file with a caption to every admin chat.
func (n *TelegramNotifier) SendDocument(ctx context.Context, filename string, data []byte, caption string) error {
	var firstErr error
	for _, chatID := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
		doc.Caption = caption
		if _, err := n.bot.Send(doc); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Str("file", filename).Msg("Failed to send telegram document")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// NotifyBooking announces a new booking.
func (n *TelegramNotifier) NotifyBooking(ctx context.Context, b *models.Booking) error {
	return n.broadcast(ctx, FormatBookingAlert(b))
}

// FormatBookingAlert renders a one-message summary of a booking.
func FormatBookingAlert(b *models.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛎 New booking %s\n", b.BookingNumber)
	fmt.Fprintf(&sb, "%s\n", b.LodgeName)
	fmt.Fprintf(&sb, "%s → %s (%d nights, %d guests)\n", b.CheckIn, b.CheckOut, b.NumNights, b.NumGuests)
	fmt.Fprintf(&sb, "Guest: %s, %s, %s\n", b.GuestName, b.GuestPhone, b.GuestEmail)
	fmt.Fprintf(&sb, "Total: ₹%.0f (%s)", b.TotalPrice, b.PaymentStatus)
	if b.SpecialRequests != "" {
		fmt.Fprintf(&sb, "\nRequests: %s", b.SpecialRequests)
	}
	return sb.String()
}
