package models

import "time"

// BookingStatus is the lifecycle state of a reservation.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusPending   BookingStatus = "pending"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// PaymentStatus tracks the simulated payment.
type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentPending  PaymentStatus = "pending"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentRefunded:
		return true
	}
	return false
}

// DateLayout is the wire format of check-in and check-out dates.
const DateLayout = "2006-01-02"

// Booking is a reservation of a lodge for a date range.
// LodgeName and PricePerNight are snapshots taken at checkout.
type Booking struct {
	ID              string        `json:"id"`
	BookingNumber   string        `json:"booking_number"`
	GuestName       string        `json:"guest_name"`
	GuestEmail      string        `json:"guest_email"`
	GuestPhone      string        `json:"guest_phone"`
	LodgeID         string        `json:"lodge_id"`
	LodgeName       string        `json:"lodge_name"`
	CheckIn         string        `json:"check_in"`
	CheckOut        string        `json:"check_out"`
	NumGuests       int           `json:"num_guests"`
	NumNights       int           `json:"num_nights"`
	PricePerNight   float64       `json:"price_per_night"`
	TotalPrice      float64       `json:"total_price"`
	Status          BookingStatus `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	CreatedDate     time.Time     `json:"created_date"`
}

func (b *Booking) GetID() string              { return b.ID }
func (b *Booking) SetID(id string)            { b.ID = id }
func (b *Booking) GetCreatedDate() time.Time  { return b.CreatedDate }
func (b *Booking) SetCreatedDate(t time.Time) { b.CreatedDate = t }

func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentPaid
}

// IsActive reports whether the booking still holds its dates.
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// Stay returns the parsed check-in and check-out dates.
func (b *Booking) Stay() (checkIn, checkOut time.Time, err error) {
	if checkIn, err = time.Parse(DateLayout, b.CheckIn); err != nil {
		return
	}
	checkOut, err = time.Parse(DateLayout, b.CheckOut)
	return
}

// ContainsDate reports whether day falls within [check_in, check_out], both ends inclusive.
// This is how the lodge calendar greys out dates.
func (b *Booking) ContainsDate(day time.Time) bool {
	in, out, err := b.Stay()
	if err != nil {
		return false
	}
	d := truncateDay(day)
	return !d.Before(in) && !d.After(out)
}

// OverlapsWith reports whether the nights [checkIn, checkOut) intersect this booking's nights.
// A guest checking in on another guest's check-out day does not overlap.
func (b *Booking) OverlapsWith(checkIn, checkOut time.Time) bool {
	in, out, err := b.Stay()
	if err != nil {
		return false
	}
	return truncateDay(checkIn).Before(out) && in.Before(truncateDay(checkOut))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
