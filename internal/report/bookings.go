package report

import (
	"io"

	"yatrinivas/internal/models"
	"yatrinivas/internal/service"
)

// ContentType of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var bookingColumns = []string{
	"Booking Number", "Lodge", "Guest", "Email", "Phone", "Check-in", "Check-out",
	"Nights", "Guests", "Price/Night", "Total", "Status", "Payment", "Booked At",
}

// WriteBookings writes a workbook with every booking plus revenue summaries.
func WriteBookings(wr io.Writer, bookings []*models.Booking, stats *service.DashboardStats) error {
	w := NewExcelizeWriter()
	defer w.Close()

	if err := w.AddSheet("Bookings"); err != nil {
		return err
	}
	if err := w.WriteHeader(bookingColumns); err != nil {
		return err
	}
	for _, b := range bookings {
		err := w.WriteRow([]interface{}{
			b.BookingNumber, b.LodgeName, b.GuestName, b.GuestEmail, b.GuestPhone,
			b.CheckIn, b.CheckOut, b.NumNights, b.NumGuests, b.PricePerNight, b.TotalPrice,
			string(b.Status), string(b.PaymentStatus), b.CreatedDate.UTC().Format("2006-01-02 15:04"),
		})
		if err != nil {
			return err
		}
	}

	if stats != nil {
		if err := w.AddSheet("Revenue by lodge"); err != nil {
			return err
		}
		if err := w.WriteHeader([]string{"Lodge", "Bookings", "Revenue"}); err != nil {
			return err
		}
		for _, r := range stats.LodgeRevenue {
			if err := w.WriteRow([]interface{}{r.LodgeName, r.Bookings, r.Revenue}); err != nil {
				return err
			}
		}

		if err := w.AddSheet("Monthly revenue"); err != nil {
			return err
		}
		if err := w.WriteHeader([]string{"Month", "Paid bookings", "Revenue"}); err != nil {
			return err
		}
		for _, m := range stats.MonthlyRevenue {
			if err := w.WriteRow([]interface{}{m.Month, m.Bookings, m.Revenue}); err != nil {
				return err
			}
		}
	}

	return w.Save(wr)
}
