// Package reminders emails guests ahead of their check-in date.
package reminders

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"yatrinivas/internal/metrics"
	"yatrinivas/internal/models"
	"yatrinivas/internal/notify"

	"github.com/rs/zerolog"
)

// BookingSource lists bookings to consider.
type BookingSource interface {
	Filter(ctx context.Context, where map[string]any) ([]*models.Booking, error)
}

// Config controls when reminders go out.
type Config struct {
	Timezone string
	// DailyHour is the local hour (0-23) of the daily run.
	DailyHour int
	// DaysBefore is how many days ahead of check-in the guest is reminded.
	DaysBefore    int
	CheckInterval time.Duration
	RetentionDays int
	// RetryDelays are the waits between send attempts.
	RetryDelays []time.Duration
	// MaxConcurrent limits parallel sends.
	MaxConcurrent int
	From          string
	PropertyName  string
}

func DefaultConfig() Config {
	return Config{
		Timezone:      "Asia/Kolkata",
		DailyHour:     10,
		DaysBefore:    1,
		CheckInterval: time.Minute,
		RetentionDays: 30,
		RetryDelays:   []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
		MaxConcurrent: 5,
		From:          "info@kolharyatrinivas.com",
		PropertyName:  "Kolhar Yatri Nivas",
	}
}

// Stats summarizes one run.
type Stats struct {
	Due     int
	Sent    int
	Skipped int
	Failed  int
}

// Scheduler sends one reminder per confirmed booking whose check-in is DaysBefore days away.
type Scheduler struct {
	config   Config
	bookings BookingSource
	mailer   notify.Mailer
	ledger   *Ledger
	location *time.Location
	logger   *zerolog.Logger
	now      func() time.Time

	mu          sync.Mutex
	lastRunDate string
}

func NewScheduler(cfg Config, bookings BookingSource, mailer notify.Mailer, ledger *Ledger, logger *zerolog.Logger) (*Scheduler, error) {
	def := DefaultConfig()
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	if cfg.DaysBefore <= 0 {
		cfg.DaysBefore = def.DaysBefore
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = def.RetentionDays
	}
	if cfg.RetryDelays == nil {
		cfg.RetryDelays = def.RetryDelays
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.From == "" {
		cfg.From = def.From
	}
	if cfg.PropertyName == "" {
		cfg.PropertyName = def.PropertyName
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Scheduler{
		config:   cfg,
		bookings: bookings,
		mailer:   mailer,
		ledger:   ledger,
		location: loc,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start checks the clock every CheckInterval and runs once a day at DailyHour.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().
		Str("timezone", s.config.Timezone).
		Int("daily_hour", s.config.DailyHour).
		Int("days_before", s.config.DaysBefore).
		Msg("Reminder scheduler started")

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.checkAndRun(ctx)
		}
	}
}

func (s *Scheduler) checkAndRun(ctx context.Context) {
	now := s.now().In(s.location)
	today := now.Format(models.DateLayout)

	s.mu.Lock()
	if s.lastRunDate == today || now.Hour() < s.config.DailyHour {
		s.mu.Unlock()
		return
	}
	s.lastRunDate = today
	s.mu.Unlock()

	s.RunNow(ctx)
}

// RunNow sends every due reminder and prunes the ledger.
func (s *Scheduler) RunNow(ctx context.Context) Stats {
	start := s.now()
	var stats Stats

	due, err := s.dueBookings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list bookings for reminders")
		return stats
	}
	stats.Due = len(due)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.config.MaxConcurrent)
	)
	for _, b := range due {
		sent, err := s.ledger.WasSent(ctx, b.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("booking_id", b.ID).Msg("Failed to read reminder ledger")
		}
		if err != nil || sent {
			mu.Lock()
			if err != nil {
				stats.Failed++
			} else {
				stats.Skipped++
			}
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(b *models.Booking) {
			defer wg.Done()
			defer func() { <-sem }()

			err := s.sendWithRetry(ctx, b)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				metrics.IncReminder("failed")
				s.logger.Error().Err(err).Str("booking_id", b.ID).Msg("Failed to send reminder")
				return
			}
			stats.Sent++
			metrics.IncReminder("sent")
		}(b)
	}
	wg.Wait()

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	if removed, err := s.ledger.Cleanup(ctx, cutoff); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clean reminder ledger")
	} else if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Cleaned reminder ledger")
	}

	s.logger.Info().
		Int("due", stats.Due).
		Int("sent", stats.Sent).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Dur("duration", s.now().Sub(start)).
		Msg("Reminders processed")
	return stats
}

// dueBookings returns confirmed bookings checking in DaysBefore days from today.
func (s *Scheduler) dueBookings(ctx context.Context) ([]*models.Booking, error) {
	target := s.now().In(s.location).AddDate(0, 0, s.config.DaysBefore).Format(models.DateLayout)
	return s.bookings.Filter(ctx, map[string]any{
		"status":   models.StatusConfirmed,
		"check_in": target,
	})
}

func (s *Scheduler) sendWithRetry(ctx context.Context, b *models.Booking) error {
	msg := s.Email(b)

	var lastErr error
	for attempt := 0; attempt <= len(s.config.RetryDelays); attempt++ {
		if attempt > 0 {
			delay := s.config.RetryDelays[attempt-1]
			s.logger.Info().
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Str("booking_id", b.ID).
				Msg("Retrying reminder")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if lastErr = s.mailer.SendEmail(ctx, msg); lastErr == nil {
			if err := s.ledger.MarkSent(ctx, b.ID, s.now()); err != nil {
				// The guest has the email; a resend on the next run is the worst case.
				s.logger.Error().Err(err).Str("booking_id", b.ID).Msg("Failed to record sent reminder")
			}
			return nil
		}
	}
	return fmt.Errorf("reminder for %s: %w", b.BookingNumber, lastErr)
}

// Email builds the reminder sent to the guest of b.
func (s *Scheduler) Email(b *models.Booking) notify.Email {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dear %s,\n\n", b.GuestName)
	fmt.Fprintf(&sb, "This is a reminder that your stay at %s begins on %s.\n\n", s.config.PropertyName, b.CheckIn)
	fmt.Fprintf(&sb, "Booking number: %s\n", b.BookingNumber)
	fmt.Fprintf(&sb, "Room: %s\n", b.LodgeName)
	fmt.Fprintf(&sb, "Check-in: %s (from 2:00 PM)\n", b.CheckIn)
	fmt.Fprintf(&sb, "Check-out: %s (by 11:00 AM)\n", b.CheckOut)
	fmt.Fprintf(&sb, "Guests: %d\n\n", b.NumGuests)
	sb.WriteString("Please carry a valid government-issued ID proof.\n")
	return notify.Email{
		To:      b.GuestEmail,
		From:    s.config.From,
		Subject: fmt.Sprintf("Your stay at %s is coming up (%s)", s.config.PropertyName, b.BookingNumber),
		Body:    sb.String(),
	}
}
