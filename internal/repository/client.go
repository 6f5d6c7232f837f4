package repository

import (
	"context"
	"fmt"
	"time"

	"yatrinivas/internal/database"
	"yatrinivas/internal/models"
)

type (
	LodgeStore   = Collection[*models.Lodge]
	BookingStore = Collection[*models.Booking]
)

// Client bundles the entity collections and the session over one backend.
type Client struct {
	Lodges   *LodgeStore
	Bookings *BookingStore
	Auth     *Auth
	Catalog  *CatalogIndex
}

func NewClient(kv database.KV, delay time.Duration) *Client {
	return &Client{
		Lodges:   NewCollection[*models.Lodge](kv, database.KeyLodges, "lodge", "Lodge", delay),
		Bookings: NewCollection[*models.Booking](kv, database.KeyBookings, "booking", "Booking", delay),
		Auth:     NewAuth(kv, delay),
		Catalog:  NewCatalogIndex(kv),
	}
}

// SeedDemoData seeds the lodge catalog and an empty booking list on first run.
// When catalog is empty the built-in demo lodges are used.
func (c *Client) SeedDemoData(ctx context.Context, catalog []*models.Lodge) (bool, error) {
	if len(catalog) == 0 {
		catalog = DemoLodges()
	}
	seeded, err := c.Lodges.Seed(ctx, catalog)
	if err != nil {
		return false, fmt.Errorf("seed lodges: %w", err)
	}
	if seeded {
		if err := c.Catalog.Record(ctx, catalog); err != nil {
			return false, fmt.Errorf("record catalog: %w", err)
		}
	}
	if _, err := c.Bookings.Seed(ctx, nil); err != nil {
		return false, fmt.Errorf("seed bookings: %w", err)
	}
	return seeded, nil
}

// DemoLodges is the built-in catalog.
func DemoLodges() []*models.Lodge {
	return []*models.Lodge{
		{
			Name:             "Deluxe Mountain View",
			Description:      "Spacious deluxe room with stunning mountain views and modern amenities.",
			ShortDescription: "Deluxe room with mountain view",
			PricePerNight:    4500,
			MaxGuests:        3,
			LodgeType:        models.LodgeDeluxe,
			Amenities:        []string{"Wi-Fi", "AC", "TV", "Breakfast", "Parking"},
			Images: []string{
				"https://images.unsplash.com/photo-1566073771259-6a8506099945?w=1000",
				"https://images.unsplash.com/photo-1551882547-ff40c63fe5fa?w=1000",
			},
			Featured:  true,
			Location:  "Kolhar",
			Available: true,
		},
		{
			Name:             "Cozy Riverside Cottage",
			Description:      "Charming cottage by the riverside with serene ambiance and private patio.",
			ShortDescription: "Riverside cottage with patio",
			PricePerNight:    3800,
			MaxGuests:        4,
			LodgeType:        models.LodgeCottage,
			Amenities:        []string{"Wi-Fi", "TV", "Coffee", "Parking"},
			Images:           []string{"https://images.unsplash.com/photo-1505693416388-ac5ce068fe85?w=1000"},
			Featured:         true,
			Location:         "Kolhar",
			Available:        true,
		},
		{
			Name:             "Premium Suite",
			Description:      "Elegant premium suite with separate living area and luxury finishes.",
			ShortDescription: "Spacious premium suite",
			PricePerNight:    6500,
			MaxGuests:        4,
			LodgeType:        models.LodgeSuite,
			Amenities:        []string{"Wi-Fi", "AC", "TV", "Breakfast", "Coffee", "Parking"},
			Images:           []string{"https://images.unsplash.com/photo-1501117716987-c8e5d3d52f8b?w=1000"},
			Location:         "Kolhar",
			Available:        true,
		},
	}
}
