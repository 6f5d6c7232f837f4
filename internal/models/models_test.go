package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestBooking_ContainsDate(t *testing.T) {
	b := Booking{CheckIn: "2026-01-10", CheckOut: "2026-01-12"}

	tests := []struct {
		name     string
		date     time.Time
		expected bool
	}{
		{"day before check-in", day(2026, 1, 9), false},
		{"check-in day", day(2026, 1, 10), true},
		{"middle night", day(2026, 1, 11), true},
		{"check-out day is inclusive", day(2026, 1, 12), true},
		{"day after check-out", day(2026, 1, 13), false},
		{"time of day is ignored", time.Date(2026, 1, 12, 23, 59, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.ContainsDate(tt.date))
		})
	}

	t.Run("malformed dates never match", func(t *testing.T) {
		bad := Booking{CheckIn: "10/01/2026", CheckOut: "2026-01-12"}
		assert.False(t, bad.ContainsDate(day(2026, 1, 11)))
	})
}

func TestBooking_OverlapsWith(t *testing.T) {
	b := Booking{CheckIn: "2026-01-10", CheckOut: "2026-01-12"}

	tests := []struct {
		name     string
		in, out  time.Time
		expected bool
	}{
		{"same range", day(2026, 1, 10), day(2026, 1, 12), true},
		{"starts inside", day(2026, 1, 11), day(2026, 1, 14), true},
		{"ends inside", day(2026, 1, 8), day(2026, 1, 11), true},
		{"check-in on check-out day", day(2026, 1, 12), day(2026, 1, 13), false},
		{"check-out on check-in day", day(2026, 1, 8), day(2026, 1, 10), false},
		{"well before", day(2026, 1, 1), day(2026, 1, 3), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.OverlapsWith(tt.in, tt.out))
		})
	}
}

func TestLodge_Helpers(t *testing.T) {
	l := &Lodge{Amenities: []string{"Wi-Fi", "AC"}}

	assert.True(t, l.HasAmenity("wi-fi"))
	assert.False(t, l.HasAmenity("Pool"))
	assert.Equal(t, DefaultCoverImage, l.CoverImage())

	l.Images = []string{"/uploads/a.jpg"}
	assert.Equal(t, "/uploads/a.jpg", l.CoverImage())
}

func TestEnums(t *testing.T) {
	assert.True(t, LodgeCabin.Valid())
	assert.False(t, LodgeType("castle").Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.False(t, BookingStatus("lost").Valid())
	assert.True(t, PaymentRefunded.Valid())
	assert.False(t, PaymentStatus("").Valid())
}

func TestUser_IsAdmin(t *testing.T) {
	var nobody *User
	assert.False(t, nobody.IsAdmin())
	assert.True(t, AdminUser().IsAdmin())
	assert.False(t, (&User{Role: "guest"}).IsAdmin())
}
