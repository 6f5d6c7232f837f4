// Package pricing computes stay lengths, totals, guest limits and booked-date calendars.
package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"yatrinivas/internal/models"
)

var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q; expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// Nights is the whole-day difference between check-out and check-in, floored at zero.
func Nights(checkIn, checkOut time.Time) int {
	days := int(dayNumber(checkOut) - dayNumber(checkIn))
	if days < 0 {
		return 0
	}
	return days
}

// dayNumber counts days since the Unix epoch for t's UTC calendar date.
// time.Duration overflows past ~292 years, so spans are taken in whole days.
func dayNumber(t time.Time) int64 {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Total is nights times the nightly rate.
func Total(nights int, rate float64) float64 {
	if nights <= 0 {
		return 0
	}
	return float64(nights) * rate
}

// ClampGuests bounds n to [1, maxGuests].
func ClampGuests(n, maxGuests int) int {
	if maxGuests < 1 {
		maxGuests = 1
	}
	switch {
	case n < 1:
		return 1
	case n > maxGuests:
		return maxGuests
	}
	return n
}

// Quote is a priced stay. A quote with zero nights is not bookable.
type Quote struct {
	CheckIn       string  `json:"check_in"`
	CheckOut      string  `json:"check_out"`
	Nights        int     `json:"num_nights"`
	Guests        int     `json:"num_guests"`
	PricePerNight float64 `json:"price_per_night"`
	Total         float64 `json:"total_price"`
	Bookable      bool    `json:"bookable"`
}

// NewQuote prices a stay at lodge for the given dates and guest count.
func NewQuote(lodge *models.Lodge, checkIn, checkOut string, guests int) (Quote, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return Quote{}, fmt.Errorf("check_in: %w", err)
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return Quote{}, fmt.Errorf("check_out: %w", err)
	}

	nights := Nights(in, out)
	return Quote{
		CheckIn:       in.Format(models.DateLayout),
		CheckOut:      out.Format(models.DateLayout),
		Nights:        nights,
		Guests:        ClampGuests(guests, lodge.MaxGuests),
		PricePerNight: lodge.PricePerNight,
		Total:         Total(nights, lodge.PricePerNight),
		Bookable:      nights > 0,
	}, nil
}

// IsDateBooked reports whether a confirmed booking of lodgeID covers day.
func IsDateBooked(bookings []*models.Booking, lodgeID string, day time.Time) bool {
	for _, b := range bookings {
		if b.LodgeID != lodgeID || b.Status != models.StatusConfirmed {
			continue
		}
		if b.ContainsDate(day) {
			return true
		}
	}
	return false
}

// BookedDates lists every date in [from, to] that IsDateBooked for lodgeID.
func BookedDates(bookings []*models.Booking, lodgeID string, from, to time.Time) []string {
	dates := make([]string, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsDateBooked(bookings, lodgeID, d) {
			dates = append(dates, d.Format(models.DateLayout))
		}
	}
	return dates
}
