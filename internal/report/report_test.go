package report

import (
	"bytes"
	"testing"
	"time"

	"yatrinivas/internal/models"
	"yatrinivas/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelizeWriter(t *testing.T) {
	w := NewExcelizeWriter()
	defer w.Close()

	assert.Error(t, w.WriteRow([]interface{}{"x"}), "no active sheet")

	require.NoError(t, w.AddSheet("A sheet name that is far longer than Excel allows"))
	require.NoError(t, w.WriteHeader([]string{"Name", "Count"}))
	require.NoError(t, w.WriteRow([]interface{}{"alpha", 3}))
	require.NoError(t, w.AddSheet("Second"))
	require.NoError(t, w.WriteRow([]interface{}{"beta"}))

	var buf bytes.Buffer
	require.NoError(t, w.Save(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 2)
	assert.Len(t, sheets[0], maxSheetName)
	assert.Equal(t, "Second", sheets[1])

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Count"}, {"alpha", "3"}}, rows)
}

func TestWriteBookings(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	lodges := []*models.Lodge{
		{ID: "l1", Name: "Deluxe Mountain View", Available: true},
		{ID: "l2", Name: "Garden Cottage", Available: true},
	}
	bookings := []*models.Booking{
		{
			BookingNumber: "KYN1", LodgeID: "l1", LodgeName: "Deluxe Mountain View",
			GuestName: "Asha", CheckIn: "2026-03-20", CheckOut: "2026-03-22",
			NumNights: 2, NumGuests: 2, PricePerNight: 4500, TotalPrice: 9000,
			Status: models.StatusConfirmed, PaymentStatus: models.PaymentPaid, CreatedDate: now,
		},
		{
			BookingNumber: "KYN2", LodgeID: "l2", LodgeName: "Garden Cottage",
			GuestName: "Ravi", CheckIn: "2026-04-01", CheckOut: "2026-04-02",
			NumNights: 1, NumGuests: 1, PricePerNight: 3500, TotalPrice: 3500,
			Status: models.StatusCancelled, PaymentStatus: models.PaymentRefunded, CreatedDate: now,
		},
	}
	stats := service.ComputeStats(lodges, bookings, now)

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, bookings, stats))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Bookings", "Revenue by lodge", "Monthly revenue"}, f.GetSheetList())

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, bookingColumns, rows[0])
	assert.Equal(t, "KYN1", rows[1][0])
	assert.Equal(t, "cancelled", rows[2][11])

	rows, err = f.GetRows("Revenue by lodge")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Deluxe Mountain View", "1", "9000"}, rows[1])

	rows, err = f.GetRows("Monthly revenue")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Month", "Paid bookings", "Revenue"}, {"2026-03", "1", "9000"}}, rows)

	t.Run("without stats", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteBookings(&buf, nil, nil))
		f, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{"Bookings"}, f.GetSheetList())
	})
}
