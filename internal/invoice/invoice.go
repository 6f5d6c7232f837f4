// Package invoice renders booking receipts as HTML and PDF.
package invoice

import (
	"math"
	"strconv"
	"strings"
	"time"

	"yatrinivas/internal/models"
)

// Property is the business shown in the invoice header and footer.
type Property struct {
	Name    string
	Tagline string
	Address string
	Phone   string
	Email   string
}

var DefaultProperty = Property{
	Name:    "Kolhar Yatri Nivas",
	Tagline: "Your Home Away From Home",
	Address: "Kolhar, Karnataka, India",
	Phone:   "+91 98765 43210",
	Email:   "info@kolharyatrinivas.com",
}

// Terms printed in the footer.
var Terms = []string{
	"Check-in time: 2:00 PM | Check-out time: 11:00 AM",
	"Cancellation charges may apply as per our cancellation policy",
	"Please carry a valid government-issued ID proof at the time of check-in",
	"This is a computer-generated invoice and does not require a physical signature",
}

// Document is a booking prepared for rendering.
type Document struct {
	Property        Property
	Number          string
	Date            string
	Paid            bool
	PaymentStatus   string
	BookingStatus   string
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	LodgeName       string
	CheckIn         string
	CheckOut        string
	Nights          int
	Guests          int
	Rate            string
	Subtotal        string
	Taxes           string
	Total           string
	SpecialRequests string
	Terms           []string
}

// NewDocument formats b for rendering.
func NewDocument(b *models.Booking, p Property) Document {
	return Document{
		Property:        p,
		Number:          b.BookingNumber,
		Date:            formatDate(b.CreatedDate),
		Paid:            b.IsPaid(),
		PaymentStatus:   strings.ToUpper(string(b.PaymentStatus)),
		BookingStatus:   strings.ToUpper(string(b.Status)),
		GuestName:       b.GuestName,
		GuestEmail:      b.GuestEmail,
		GuestPhone:      b.GuestPhone,
		LodgeName:       b.LodgeName,
		CheckIn:         formatDay(b.CheckIn),
		CheckOut:        formatDay(b.CheckOut),
		Nights:          b.NumNights,
		Guests:          b.NumGuests,
		Rate:            FormatAmount(b.PricePerNight),
		Subtotal:        FormatAmount(b.TotalPrice),
		Taxes:           FormatAmount(0),
		Total:           FormatAmount(b.TotalPrice),
		SpecialRequests: strings.TrimSpace(b.SpecialRequests),
		Terms:           Terms,
	}
}

// Filename is the download name of the PDF.
func (d Document) Filename() string {
	return "Invoice-" + d.Number + ".pdf"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

func formatDay(s string) string {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("02 Jan 2006")
}

// FormatAmount renders a rupee amount with thousands separators, e.g. 13500 -> "13,500".
// Paise are shown only when present.
func FormatAmount(v float64) string {
	neg := v < 0
	v = math.Abs(v)
	whole := math.Floor(v)
	paise := int(math.Round((v - whole) * 100))
	if paise == 100 {
		whole++
		paise = 0
	}

	digits := strconv.FormatFloat(whole, 'f', 0, 64)
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if paise > 0 {
		sb.WriteByte('.')
		if paise < 10 {
			sb.WriteByte('0')
		}
		sb.WriteString(strconv.Itoa(paise))
	}
	return sb.String()
}
