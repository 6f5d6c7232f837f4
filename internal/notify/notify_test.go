package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	"yatrinivas/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockBot struct {
	mock.Mock
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func TestLogMailer(t *testing.T) {
	logger := zerolog.New(io.Discard)
	m := NewLogMailer(&logger)

	assert.NoError(t, m.SendEmail(context.Background(), Email{To: "info@example.com", Subject: "Hi"}))
	assert.Error(t, m.SendEmail(context.Background(), Email{Subject: "no recipient"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.SendEmail(ctx, Email{To: "a@b.c"}), context.Canceled)
}

func TestTelegramNotifier(t *testing.T) {
	logger := zerolog.New(io.Discard)
	bot := new(mockBot)
	n := NewTelegramNotifierWithBot(bot, []int64{10, 20}, &logger)

	t.Run("broadcasts to every chat", func(t *testing.T) {
		bot.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool { return c.ChatID == 10 })).Return(nil).Once()
		bot.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool { return c.ChatID == 20 })).Return(nil).Once()

		err := n.SendEmail(context.Background(), Email{To: "admin", Subject: "Contact Form: Hello", Body: "text"})
		assert.NoError(t, err)
		bot.AssertExpectations(t)
	})

	t.Run("keeps going after a failed chat", func(t *testing.T) {
		bot.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool { return c.ChatID == 10 })).Return(errors.New("blocked")).Once()
		bot.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool { return c.ChatID == 20 })).Return(nil).Once()

		err := n.NotifyBooking(context.Background(), &models.Booking{BookingNumber: "KYN12345678"})
		assert.EqualError(t, err, "blocked")
		bot.AssertExpectations(t)
	})

	t.Run("sends documents", func(t *testing.T) {
		isReport := func(chatID int64) func(tgbotapi.DocumentConfig) bool {
			return func(c tgbotapi.DocumentConfig) bool {
				f, ok := c.File.(tgbotapi.FileBytes)
				return c.ChatID == chatID && ok && f.Name == "bookings_2026-11.xlsx" && c.Caption == "November"
			}
		}
		bot.On("Send", mock.MatchedBy(isReport(10))).Return(nil).Once()
		bot.On("Send", mock.MatchedBy(isReport(20))).Return(nil).Once()

		err := n.SendDocument(context.Background(), "bookings_2026-11.xlsx", []byte("xlsx"), "November")
		assert.NoError(t, err)
		bot.AssertExpectations(t)
	})
}

func TestFormatBookingAlert(t *testing.T) {
	text := FormatBookingAlert(&models.Booking{
		BookingNumber:   "KYN12345678",
		LodgeName:       "Premium Suite",
		CheckIn:         "2026-02-01",
		CheckOut:        "2026-02-03",
		NumNights:       2,
		NumGuests:       2,
		TotalPrice:      13000,
		PaymentStatus:   models.PaymentPaid,
		SpecialRequests: "Late arrival",
	})

	assert.Contains(t, text, "KYN12345678")
	assert.Contains(t, text, "2 nights")
	assert.Contains(t, text, "₹13000")
	assert.Contains(t, text, "Late arrival")
}
