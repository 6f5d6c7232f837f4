package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"yatrinivas/internal/models"
	"yatrinivas/internal/service"

	"github.com/rs/zerolog"
)

// DocumentSender delivers a finished report.
type DocumentSender interface {
	SendDocument(ctx context.Context, filename string, data []byte, caption string) error
}

// Monthly sends the previous month's bookings workbook on the first of every month.
type Monthly struct {
	lodges   service.LodgeRepository
	bookings service.BookingRepository
	sender   DocumentSender
	property string
	location *time.Location
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewMonthly(lodges service.LodgeRepository, bookings service.BookingRepository, sender DocumentSender, property string, loc *time.Location, logger *zerolog.Logger) *Monthly {
	if loc == nil {
		loc = time.UTC
	}
	return &Monthly{
		lodges:   lodges,
		bookings: bookings,
		sender:   sender,
		property: property,
		location: loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Start blocks until ctx is done, running Send shortly after each month begins.
func (m *Monthly) Start(ctx context.Context) {
	next := m.nextFirstOfMonth()
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()
	m.logger.Info().Time("next_run", next).Msg("Monthly report scheduled")

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := m.Send(ctx); err != nil {
				m.logger.Error().Err(err).Msg("Failed to send monthly report")
			}
			next = m.nextFirstOfMonth()
			timer.Reset(time.Until(next))
			m.logger.Info().Time("next_run", next).Msg("Monthly report scheduled")
		}
	}
}

func (m *Monthly) nextFirstOfMonth() time.Time {
	now := m.now().In(m.location)
	return time.Date(now.Year(), now.Month()+1, 1, 0, 1, 0, 0, m.location)
}

// Send builds and delivers the report for the month before now.
func (m *Monthly) Send(ctx context.Context) error {
	month := previousMonth(m.now().In(m.location))

	lodges, err := m.lodges.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list lodges: %w", err)
	}
	all, err := m.bookings.List(ctx, "created_date")
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	bookings := bookingsCreatedIn(all, month)

	var buf bytes.Buffer
	if err := WriteBookings(&buf, bookings, service.ComputeStats(lodges, bookings, month)); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	filename := MonthlyFilename(month)
	caption := fmt.Sprintf("📊 %s: %d bookings in %s", m.property, len(bookings), month.Format("January 2006"))
	if err := m.sender.SendDocument(ctx, filename, buf.Bytes(), caption); err != nil {
		return fmt.Errorf("send %s: %w", filename, err)
	}
	m.logger.Info().Str("file", filename).Int("bookings", len(bookings)).Msg("Monthly report sent")
	return nil
}

// MonthlyFilename is like "bookings_2026-01.xlsx".
func MonthlyFilename(month time.Time) string {
	return fmt.Sprintf("bookings_%s.xlsx", month.Format("2006-01"))
}

func previousMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
}

func bookingsCreatedIn(bookings []*models.Booking, month time.Time) []*models.Booking {
	out := make([]*models.Booking, 0)
	for _, b := range bookings {
		c := b.CreatedDate.In(month.Location())
		if c.Year() == month.Year() && c.Month() == month.Month() {
			out = append(out, b)
		}
	}
	return out
}
