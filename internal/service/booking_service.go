package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"yatrinivas/internal/events"
	"yatrinivas/internal/metrics"
	"yatrinivas/internal/models"
	"yatrinivas/internal/pricing"
	"yatrinivas/internal/repository"

	"github.com/rs/zerolog"
)

// BookingRules configures checkout.
type BookingRules struct {
	// RejectOverlaps refuses stays that share a night with a confirmed booking.
	RejectOverlaps bool
	DefaultGuests  int
	NumberPrefix   string
}

// GuestInfo is the contact block of the checkout form.
type GuestInfo struct {
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	SpecialRequests string `json:"special_requests"`
}

// PaymentInfo is the simulated card form. Nothing is charged or stored.
type PaymentInfo struct {
	CardNumber     string `json:"card_number" validate:"required"`
	ExpiryDate     string `json:"expiry_date" validate:"required"`
	CVV            string `json:"cvv" validate:"required"`
	CardholderName string `json:"cardholder_name" validate:"required"`
}

// CheckoutRequest is everything the checkout page submits.
type CheckoutRequest struct {
	LodgeID  string      `json:"lodge_id"`
	CheckIn  string      `json:"check_in"`
	CheckOut string      `json:"check_out"`
	Guests   int         `json:"guests"`
	Guest    GuestInfo   `json:"guest"`
	Payment  PaymentInfo `json:"payment"`
}

func (r *CheckoutRequest) normalize() {
	trim := func(ss ...*string) {
		for _, s := range ss {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(&r.LodgeID, &r.CheckIn, &r.CheckOut,
		&r.Guest.FullName, &r.Guest.Email, &r.Guest.Phone, &r.Guest.SpecialRequests,
		&r.Payment.CardNumber, &r.Payment.ExpiryDate, &r.Payment.CVV, &r.Payment.CardholderName)
}

func (r *CheckoutRequest) validate() error {
	if r.LodgeID == "" || r.CheckIn == "" || r.CheckOut == "" {
		return invalid("lodge_id, check_in and check_out are required", "lodge_id", "check_in", "check_out")
	}
	if err := validate.Struct(r.Guest); err != nil {
		fields, malformed := failedFields(err)
		if malformed {
			return invalid("Please enter a valid email address", fields...)
		}
		return invalid("Please fill in all guest information fields", fields...)
	}
	if err := validate.Struct(r.Payment); err != nil {
		fields, _ := failedFields(err)
		return invalid("Please fill in all payment information fields", fields...)
	}
	return nil
}

// BookingUpdate is an admin change to a booking. Nil fields are left alone.
type BookingUpdate struct {
	Status        *models.BookingStatus `json:"status,omitempty"`
	PaymentStatus *models.PaymentStatus `json:"payment_status,omitempty"`
}

// BookingService handles checkout and booking administration.
type BookingService struct {
	lodges   LodgeRepository
	bookings BookingRepository
	events   Publisher
	rules    BookingRules
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(lodges LodgeRepository, bookings BookingRepository, pub Publisher, rules BookingRules, logger *zerolog.Logger) *BookingService {
	if rules.DefaultGuests <= 0 {
		rules.DefaultGuests = 2
	}
	if rules.NumberPrefix == "" {
		rules.NumberPrefix = "KYN"
	}
	return &BookingService{
		lodges:   lodges,
		bookings: bookings,
		events:   pub,
		rules:    rules,
		logger:   logger,
		now:      time.Now,
	}
}

// BookingNumber is the prefix followed by the last 8 digits of the unix-millisecond time.
func BookingNumber(prefix string, t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return prefix + ms
}

// Checkout validates the form, prices the stay and records a confirmed, paid booking.
func (s *BookingService) Checkout(ctx context.Context, req CheckoutRequest) (*models.Booking, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	lodge, err := s.lodges.Get(ctx, req.LodgeID)
	if err != nil {
		return nil, err
	}
	if !lodge.Available {
		return nil, ErrNotAvailable
	}

	guests := req.Guests
	if guests <= 0 {
		guests = s.rules.DefaultGuests
	}
	quote, err := pricing.NewQuote(lodge, req.CheckIn, req.CheckOut, guests)
	if err != nil {
		return nil, invalid(err.Error(), "check_in", "check_out")
	}
	if !quote.Bookable {
		return nil, ErrInvalidStay
	}

	if s.rules.RejectOverlaps {
		if err := s.checkOverlap(ctx, lodge.ID, quote); err != nil {
			return nil, err
		}
	}

	booking := &models.Booking{
		BookingNumber:   BookingNumber(s.rules.NumberPrefix, s.now()),
		GuestName:       req.Guest.FullName,
		GuestEmail:      req.Guest.Email,
		GuestPhone:      req.Guest.Phone,
		LodgeID:         lodge.ID,
		LodgeName:       lodge.Name,
		CheckIn:         quote.CheckIn,
		CheckOut:        quote.CheckOut,
		NumGuests:       quote.Guests,
		NumNights:       quote.Nights,
		PricePerNight:   quote.PricePerNight,
		TotalPrice:      quote.Total,
		Status:          models.StatusConfirmed,
		PaymentStatus:   models.PaymentPaid,
		SpecialRequests: req.Guest.SpecialRequests,
	}

	created, err := s.bookings.Create(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.IncBookingCreated(string(created.Status))
	metrics.AddRevenue(created.TotalPrice)
	s.logger.Info().
		Str("booking_id", created.ID).
		Str("booking_number", created.BookingNumber).
		Str("lodge_id", created.LodgeID).
		Int("nights", created.NumNights).
		Float64("total", created.TotalPrice).
		Msg("Booking created")

	s.publish(events.BookingCreated, created)
	return created, nil
}

func (s *BookingService) checkOverlap(ctx context.Context, lodgeID string, q pricing.Quote) error {
	in, _ := pricing.ParseDate(q.CheckIn)
	out, _ := pricing.ParseDate(q.CheckOut)

	existing, err := s.bookings.Filter(ctx, map[string]any{
		"lodge_id": lodgeID,
		"status":   models.StatusConfirmed,
	})
	if err != nil {
		return err
	}
	for _, b := range existing {
		if b.OverlapsWith(in, out) {
			return fmt.Errorf("%w: overlaps booking %s", ErrNotAvailable, b.BookingNumber)
		}
	}
	return nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	return s.bookings.Get(ctx, id)
}

// List returns every booking, newest first.
func (s *BookingService) List(ctx context.Context) ([]*models.Booking, error) {
	return s.bookings.List(ctx, repository.OrderCreatedDesc)
}

// Update applies an admin status change.
func (s *BookingService) Update(ctx context.Context, id string, upd BookingUpdate) (*models.Booking, error) {
	patch := map[string]any{}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, invalid(fmt.Sprintf("unknown status %q", *upd.Status), "status")
		}
		patch["status"] = *upd.Status
	}
	if upd.PaymentStatus != nil {
		if !upd.PaymentStatus.Valid() {
			return nil, invalid(fmt.Sprintf("unknown payment_status %q", *upd.PaymentStatus), "payment_status")
		}
		patch["payment_status"] = *upd.PaymentStatus
	}
	if len(patch) == 0 {
		return nil, invalid("No fields to update")
	}

	booking, err := s.bookings.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if upd.Status != nil {
		metrics.IncBookingStatusChanged(string(*upd.Status))
	}
	s.publish(events.BookingStatusChanged, booking)
	return booking, nil
}

func (s *BookingService) Delete(ctx context.Context, id string) error {
	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(events.BookingDeleted, &models.Booking{ID: id})
	return nil
}

func (s *BookingService) publish(eventType string, b *models.Booking) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(eventType, b.ID, b); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", b.ID).Msg("Failed to publish booking event")
	}
}

// IsNotFound reports whether err is a missing lodge or booking.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
