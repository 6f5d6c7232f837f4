package models

import (
	"strings"
	"time"
)

// LodgeType classifies a lodge in the catalog.
type LodgeType string

const (
	LodgeHotelRoom LodgeType = "hotel_room"
	LodgeCabin     LodgeType = "cabin"
	LodgeCottage   LodgeType = "cottage"
	LodgeSuite     LodgeType = "suite"
	LodgeDeluxe    LodgeType = "deluxe"
)

// LodgeTypes lists every lodge type in display order.
var LodgeTypes = []LodgeType{LodgeHotelRoom, LodgeCabin, LodgeCottage, LodgeSuite, LodgeDeluxe}

// Valid reports whether t is a known lodge type.
func (t LodgeType) Valid() bool {
	for _, known := range LodgeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DefaultCoverImage is shown for lodges without images.
const DefaultCoverImage = "https://images.unsplash.com/photo-1566073771259-6a8506099945?w=800"

// Amenities offered in the lodge editor.
var Amenities = []string{
	"Wi-Fi", "AC", "TV", "Pool", "Parking", "Breakfast", "Coffee", "Room Service",
	"Mini Bar", "Balcony", "Mountain View", "River View", "Garden", "Gym", "Spa",
	"Restaurant", "Laundry", "Hot Water",
}

// Lodge is a bookable unit of the property.
type Lodge struct {
	ID               string    `json:"id" yaml:"id,omitempty"`
	Name             string    `json:"name" yaml:"name"`
	Description      string    `json:"description" yaml:"description"`
	ShortDescription string    `json:"short_description" yaml:"short_description"`
	PricePerNight    float64   `json:"price_per_night" yaml:"price_per_night"`
	MaxGuests        int       `json:"max_guests" yaml:"max_guests"`
	LodgeType        LodgeType `json:"lodge_type" yaml:"lodge_type"`
	Amenities        []string  `json:"amenities" yaml:"amenities"`
	Location         string    `json:"location" yaml:"location"`
	Images           []string  `json:"images" yaml:"images"`
	Featured         bool      `json:"featured" yaml:"featured"`
	Available        bool      `json:"available" yaml:"available"`
	CreatedDate      time.Time `json:"created_date" yaml:"-"`
}

func (l *Lodge) GetID() string              { return l.ID }
func (l *Lodge) SetID(id string)            { l.ID = id }
func (l *Lodge) GetCreatedDate() time.Time  { return l.CreatedDate }
func (l *Lodge) SetCreatedDate(t time.Time) { l.CreatedDate = t }

// HasAmenity reports whether the lodge lists the amenity, ignoring case.
func (l *Lodge) HasAmenity(name string) bool {
	for _, a := range l.Amenities {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// CoverImage returns the first image or the default cover.
func (l *Lodge) CoverImage() string {
	if len(l.Images) > 0 && l.Images[0] != "" {
		return l.Images[0]
	}
	return DefaultCoverImage
}
