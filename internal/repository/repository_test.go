package repository

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"yatrinivas/internal/database"
	"yatrinivas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, database.KV) {
	t.Helper()
	kv := database.NewMemoryKV()
	return NewClient(kv, 0), kv
}

func TestCollection_CreateAssignsIdentity(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	a, err := c.Lodges.Create(ctx, &models.Lodge{Name: "A", PricePerNight: 1000})
	require.NoError(t, err)
	b, err := c.Lodges.Create(ctx, &models.Lodge{Name: "B", PricePerNight: 2000})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.ID, "lodge_"))
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedDate.IsZero())

	got, err := c.Lodges.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
}

func TestCollection_UniqueIDsUnderConcurrency(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Bookings.Create(ctx, &models.Booking{GuestName: "x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := c.Bookings.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 50)

	seen := map[string]bool{}
	for _, b := range all {
		assert.False(t, seen[b.ID], "duplicate id %s", b.ID)
		seen[b.ID] = true
	}
}

func TestCollection_ListOrder(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	c.Bookings.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	for _, name := range []string{"first", "second", "third"} {
		_, err := c.Bookings.Create(ctx, &models.Booking{GuestName: name})
		require.NoError(t, err)
	}

	newest, err := c.Bookings.List(ctx, OrderCreatedDesc)
	require.NoError(t, err)
	assert.Equal(t, "third", newest[0].GuestName)
	assert.Equal(t, "first", newest[2].GuestName)

	oldest, err := c.Bookings.List(ctx, OrderCreatedAsc)
	require.NoError(t, err)
	assert.Equal(t, "first", oldest[0].GuestName)
}

func TestCollection_Filter(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for _, b := range []*models.Booking{
		{LodgeID: "l1", Status: models.StatusConfirmed, NumGuests: 2},
		{LodgeID: "l1", Status: models.StatusCancelled, NumGuests: 2},
		{LodgeID: "l2", Status: models.StatusConfirmed, NumGuests: 3},
	} {
		_, err := c.Bookings.Create(ctx, b)
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		where map[string]any
		count int
	}{
		{"single field", map[string]any{"lodge_id": "l1"}, 2},
		{"all fields must match", map[string]any{"lodge_id": "l1", "status": "confirmed"}, 1},
		{"typed values compare like stored ones", map[string]any{"status": models.StatusConfirmed, "num_guests": 3}, 1},
		{"no match", map[string]any{"lodge_id": "l3"}, 0},
		{"empty filter matches all", map[string]any{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Bookings.Filter(ctx, tt.where)
			require.NoError(t, err)
			assert.Len(t, got, tt.count)
		})
	}
}

func TestCollection_UpdateMergesFields(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	created, err := c.Lodges.Create(ctx, &models.Lodge{
		Name: "A", PricePerNight: 1000, MaxGuests: 2, Amenities: []string{"TV"}, Available: true,
	})
	require.NoError(t, err)

	updated, err := c.Lodges.Update(ctx, created.ID, map[string]any{
		"price_per_night": 1500,
		"featured":        true,
		"id":              "hijack",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 1500.0, updated.PricePerNight)
	assert.True(t, updated.Featured)
	assert.Equal(t, "A", updated.Name)
	assert.Equal(t, []string{"TV"}, updated.Amenities)
	assert.True(t, updated.CreatedDate.Equal(created.CreatedDate))

	stored, err := c.Lodges.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, stored.PricePerNight)

	t.Run("unknown id", func(t *testing.T) {
		_, err := c.Lodges.Update(ctx, "lodge_missing", map[string]any{"name": "x"})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "Lodge not found")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := c.Lodges.Update(ctx, created.ID, map[string]any{"max_guests": "many"})
		assert.ErrorIs(t, err, ErrInvalidPatch)
	})
}

func TestCollection_Delete(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	a, _ := c.Lodges.Create(ctx, &models.Lodge{Name: "A"})
	b, _ := c.Lodges.Create(ctx, &models.Lodge{Name: "B"})

	require.NoError(t, c.Lodges.Delete(ctx, a.ID))

	all, err := c.Lodges.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)

	_, err = c.Lodges.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.Bookings.Delete(ctx, "booking_missing")
	assert.EqualError(t, err, "Booking not found")
}

func TestCollection_CorruptBucket(t *testing.T) {
	c, kv := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, database.KeyLodges, []byte("{not json")))

	_, err := c.Lodges.List(ctx, "")
	assert.Error(t, err)
}

func TestCollection_DelayHonorsContext(t *testing.T) {
	kv := database.NewMemoryKV()
	c := NewClient(kv, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Lodges.List(ctx, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCollection_DelayIsApplied(t *testing.T) {
	c := NewClient(database.NewMemoryKV(), 20*time.Millisecond)
	start := time.Now()
	_, err := c.Lodges.List(context.Background(), "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSeedDemoData(t *testing.T) {
	c, kv := newTestClient(t)
	ctx := context.Background()

	seeded, err := c.SeedDemoData(ctx, nil)
	require.NoError(t, err)
	assert.True(t, seeded)

	lodges, err := c.Lodges.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, lodges, 3)
	for _, l := range lodges {
		assert.NotEmpty(t, l.ID)
		assert.False(t, l.CreatedDate.IsZero())
		assert.True(t, l.Available)
	}

	raw, err := kv.Get(ctx, database.KeyBookings)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	t.Run("second run keeps existing data", func(t *testing.T) {
		require.NoError(t, c.Lodges.Delete(ctx, lodges[0].ID))
		seeded, err := c.SeedDemoData(ctx, nil)
		require.NoError(t, err)
		assert.False(t, seeded)

		lodges, err := c.Lodges.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, lodges, 2)
	})
}

func TestAuth(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	me, err := c.Auth.Me(ctx)
	require.NoError(t, err)
	assert.Nil(t, me)

	user, err := c.Auth.Login(ctx)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	me, err = c.Auth.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user_admin", me.ID)
	assert.True(t, me.IsAdmin())

	require.NoError(t, c.Auth.Logout(ctx))
	me, err = c.Auth.Me(ctx)
	require.NoError(t, err)
	assert.Nil(t, me)
	assert.False(t, me.IsAdmin())
}
