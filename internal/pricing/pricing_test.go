package pricing

import (
	"testing"
	"time"

	"yatrinivas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2026-03-01T18:30:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", d.Format(models.DateLayout))

	_, err = ParseDate("01.03.2026")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestNightsAndTotal(t *testing.T) {
	tests := []struct {
		name     string
		in, out  string
		rate     float64
		nights   int
		total    float64
		bookable bool
	}{
		{"three nights", "2026-01-10", "2026-01-13", 4500, 3, 13500, true},
		{"one night", "2026-01-10", "2026-01-11", 3800, 1, 3800, true},
		{"same day", "2026-01-10", "2026-01-10", 4500, 0, 0, false},
		{"reversed dates", "2026-01-13", "2026-01-10", 4500, 0, 0, false},
		{"across month end", "2026-01-30", "2026-02-02", 6500, 3, 19500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lodge := &models.Lodge{PricePerNight: tt.rate, MaxGuests: 4}
			q, err := NewQuote(lodge, tt.in, tt.out, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.nights, q.Nights)
			assert.Equal(t, tt.total, q.Total)
			assert.Equal(t, tt.bookable, q.Bookable)
		})
	}

	t.Run("full calendar range", func(t *testing.T) {
		in, err := ParseDate("0001-01-01")
		require.NoError(t, err)
		out, err := ParseDate("9999-12-31")
		require.NoError(t, err)
		assert.Equal(t, 3652058, Nights(in, out))
		assert.Equal(t, 0, Nights(out, in))
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := NewQuote(&models.Lodge{}, "tomorrow", "2026-01-10", 1)
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestClampGuests(t *testing.T) {
	tests := []struct {
		n, max, expected int
	}{
		{0, 3, 1},
		{-2, 3, 1},
		{2, 3, 2},
		{3, 3, 3},
		{7, 3, 3},
		{5, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClampGuests(tt.n, tt.max), "n=%d max=%d", tt.n, tt.max)
	}
}

func TestBookedDates(t *testing.T) {
	bookings := []*models.Booking{
		{LodgeID: "a", CheckIn: "2026-01-10", CheckOut: "2026-01-11", Status: models.StatusConfirmed},
		{LodgeID: "a", CheckIn: "2026-01-14", CheckOut: "2026-01-15", Status: models.StatusCancelled},
		{LodgeID: "b", CheckIn: "2026-01-12", CheckOut: "2026-01-12", Status: models.StatusConfirmed},
	}
	from := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"2026-01-10", "2026-01-11"}, BookedDates(bookings, "a", from, to))
	assert.Equal(t, []string{"2026-01-12"}, BookedDates(bookings, "b", from, to))
	assert.Empty(t, BookedDates(bookings, "c", from, to))
	assert.False(t, IsDateBooked(bookings, "a", time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)))
}
