package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"yatrinivas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefaultsAndEnv(t *testing.T) {
	t.Setenv("TEST_NIVAS_SECRET", "s3cret")

	cfg, err := Parse([]byte("auth:\n  jwt_secret: \"${TEST_NIVAS_SECRET}\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 200*time.Millisecond, cfg.StoreLatency())
	assert.Equal(t, 2, cfg.Booking.DefaultGuests)
	assert.Equal(t, "KYN", cfg.Booking.NumberPrefix)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())
	assert.Equal(t, "Bookings", cfg.Sheets.SheetName)
	assert.Equal(t, "Asia/Kolkata", cfg.Reminders.Timezone)
	assert.Equal(t, 10, cfg.Reminders.DailyHour)
	assert.Equal(t, 1, cfg.Reminders.DaysBefore)
	assert.False(t, cfg.Telegram.MonthlyReport)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing secret", "store:\n  driver: memory\n"},
		{"unknown driver", "auth:\n  jwt_secret: x\nstore:\n  driver: mongo\n"},
		{"redis without address", "auth:\n  jwt_secret: x\nstore:\n  driver: redis\n"},
		{"postgres without dsn", "auth:\n  jwt_secret: x\nstore:\n  driver: postgres\n"},
		{"bad fallback", "auth:\n  jwt_secret: x\nstore:\n  driver: memory\n  fallback: redis\n"},
		{"bad latency", "auth:\n  jwt_secret: x\nstore:\n  latency: soon\n"},
		{"reminder hour out of range", "auth:\n  jwt_secret: x\nreminders:\n  daily_hour: 24\n"},
		{"unknown reminder timezone", "auth:\n  jwt_secret: x\nreminders:\n  timezone: Mars/Olympus\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_ZeroLatency(t *testing.T) {
	cfg, err := Parse([]byte("auth:\n  jwt_secret: x\nstore:\n  latency: 0s\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.StoreLatency())
}

func TestLoadCatalog(t *testing.T) {
	cfg, err := LoadCatalog(filepath.Join("..", "..", "configs", "lodges.yaml"))
	require.NoError(t, err)

	lodges := cfg.ToLodges()
	require.Len(t, lodges, 3)
	assert.Equal(t, "Deluxe Mountain View", lodges[0].Name)
	assert.Equal(t, models.LodgeDeluxe, lodges[0].LodgeType)
	assert.True(t, lodges[0].Featured)
	assert.True(t, lodges[2].Available, "available defaults to true")
	assert.False(t, lodges[2].Featured)
}

func TestCatalogValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog CatalogConfig
	}{
		{"empty", CatalogConfig{}},
		{"no name", CatalogConfig{Lodges: []LodgeConfig{{PricePerNight: 1, MaxGuests: 1}}}},
		{"duplicate", CatalogConfig{Lodges: []LodgeConfig{
			{Name: "A", PricePerNight: 1, MaxGuests: 1},
			{Name: "A", PricePerNight: 1, MaxGuests: 1},
		}}},
		{"zero price", CatalogConfig{Lodges: []LodgeConfig{{Name: "A", MaxGuests: 1}}}},
		{"zero guests", CatalogConfig{Lodges: []LodgeConfig{{Name: "A", PricePerNight: 1}}}},
		{"bad type", CatalogConfig{Lodges: []LodgeConfig{{Name: "A", PricePerNight: 1, MaxGuests: 1, LodgeType: "igloo"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.catalog.Validate())
		})
	}
}

func TestWatchCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lodges.yaml")
	bump := 0
	write := func(data string) {
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
		bump++
		future := time.Now().Add(time.Duration(bump) * time.Minute)
		require.NoError(t, os.Chtimes(path, future, future))
	}
	writeCatalog := func(name string) {
		write("lodges:\n  - name: " + name + "\n    price_per_night: 1000\n    max_guests: 2\n")
	}
	writeCatalog("First")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var updates, failures atomic.Int32
	var last atomic.Value
	err := WatchCatalog(ctx, path, 10*time.Millisecond, func(c *CatalogConfig) {
		updates.Add(1)
		last.Store(c.Lodges[0].Name)
	}, func(error) {
		failures.Add(1)
	})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, updates.Load(), "the file present at start is not reapplied")

	writeCatalog("Second")
	assert.Eventually(t, func() bool {
		return last.Load() == "Second"
	}, time.Second, 10*time.Millisecond)

	write("lodges: [")
	assert.Eventually(t, func() bool {
		return failures.Load() == 1
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), failures.Load(), "a broken file is reported once")
	assert.Equal(t, "Second", last.Load())
}

func TestWatchCatalogMissingFile(t *testing.T) {
	err := WatchCatalog(t.Context(), filepath.Join(t.TempDir(), "none.yaml"), time.Second, nil, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
