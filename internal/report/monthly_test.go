package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"yatrinivas/internal/database"
	"yatrinivas/internal/models"
	"yatrinivas/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeSender struct {
	filename string
	caption  string
	data     []byte
	err      error
}

func (f *fakeSender) SendDocument(_ context.Context, filename string, data []byte, caption string) error {
	f.filename, f.caption, f.data = filename, caption, data
	return f.err
}

func seedMonthly(t *testing.T) *repository.Client {
	t.Helper()
	client := repository.NewClient(database.NewMemoryKV(), 0)
	_, err := client.SeedDemoData(t.Context(), nil)
	require.NoError(t, err)
	return client
}

func TestMonthlySend(t *testing.T) {
	kv := database.NewMemoryKV()
	client := repository.NewClient(kv, 0)
	_, err := client.Lodges.Seed(t.Context(), repository.DemoLodges())
	require.NoError(t, err)
	_, err = client.Bookings.Seed(t.Context(), []*models.Booking{
		{BookingNumber: "KYN-OCT", LodgeName: "Deluxe Mountain View", TotalPrice: 9000, Status: models.StatusConfirmed,
			PaymentStatus: models.PaymentPaid, CreatedDate: time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)},
		{BookingNumber: "KYN-NOV1", LodgeName: "Deluxe Mountain View", TotalPrice: 4500, Status: models.StatusConfirmed,
			PaymentStatus: models.PaymentPaid, CreatedDate: time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)},
		{BookingNumber: "KYN-NOV2", LodgeName: "Cozy Riverside Cottage", TotalPrice: 3800, Status: models.StatusPending,
			PaymentStatus: models.PaymentPending, CreatedDate: time.Date(2026, 11, 28, 9, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	logger := zerolog.New(io.Discard)
	sender := &fakeSender{}
	m := NewMonthly(client.Lodges, client.Bookings, sender, "Kolhar Yatri Nivas", time.UTC, &logger)
	m.now = func() time.Time { return time.Date(2026, 12, 1, 0, 1, 0, 0, time.UTC) }

	require.NoError(t, m.Send(t.Context()))
	assert.Equal(t, "bookings_2026-11.xlsx", sender.filename)
	assert.Contains(t, sender.caption, "2 bookings in November 2026")

	f, err := excelize.OpenReader(bytes.NewReader(sender.data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "KYN-NOV1", rows[1][0])
	assert.Equal(t, "KYN-NOV2", rows[2][0])
}

func TestMonthlySendError(t *testing.T) {
	client := seedMonthly(t)
	logger := zerolog.New(io.Discard)
	sender := &fakeSender{err: errors.New("telegram down")}
	m := NewMonthly(client.Lodges, client.Bookings, sender, "Kolhar Yatri Nivas", nil, &logger)

	err := m.Send(t.Context())
	assert.ErrorContains(t, err, "telegram down")
}

func TestNextFirstOfMonth(t *testing.T) {
	logger := zerolog.New(io.Discard)
	m := NewMonthly(nil, nil, nil, "", time.UTC, &logger)

	m.now = func() time.Time { return time.Date(2026, 12, 15, 8, 0, 0, 0, time.UTC) }
	assert.Equal(t, time.Date(2027, 1, 1, 0, 1, 0, 0, time.UTC), m.nextFirstOfMonth())

	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), previousMonth(time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC)))
}
