package config

import (
	"fmt"
	"os"

	"yatrinivas/internal/models"

	"gopkg.in/yaml.v3"
)

// LodgeConfig is one catalog entry. Available defaults to true when omitted.
type LodgeConfig struct {
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	ShortDescription string   `yaml:"short_description"`
	PricePerNight    float64  `yaml:"price_per_night"`
	MaxGuests        int      `yaml:"max_guests"`
	LodgeType        string   `yaml:"lodge_type"`
	Amenities        []string `yaml:"amenities"`
	Location         string   `yaml:"location"`
	Images           []string `yaml:"images"`
	Featured         bool     `yaml:"featured"`
	Available        *bool    `yaml:"available,omitempty"`
}

// CatalogConfig is the root of lodges.yaml.
type CatalogConfig struct {
	Lodges []LodgeConfig `yaml:"lodges"`
}

// LoadCatalog loads and validates the lodge catalog from a YAML file.
func LoadCatalog(path string) (*CatalogConfig, error) {
	if path == "" {
		path = "configs/lodges.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	return &cfg, nil
}

// Validate checks the catalog for errors.
func (c *CatalogConfig) Validate() error {
	if len(c.Lodges) == 0 {
		return fmt.Errorf("no lodges defined")
	}

	names := make(map[string]bool)
	for i, l := range c.Lodges {
		if l.Name == "" {
			return fmt.Errorf("lodge[%d]: name is required", i)
		}
		if names[l.Name] {
			return fmt.Errorf("lodge[%d]: duplicate name %q", i, l.Name)
		}
		names[l.Name] = true

		if l.PricePerNight <= 0 {
			return fmt.Errorf("lodge %q: price_per_night must be positive", l.Name)
		}
		if l.MaxGuests <= 0 {
			return fmt.Errorf("lodge %q: max_guests must be positive", l.Name)
		}
		if l.LodgeType != "" && !models.LodgeType(l.LodgeType).Valid() {
			return fmt.Errorf("lodge %q: unknown lodge_type %q", l.Name, l.LodgeType)
		}
	}

	return nil
}

// ToLodges converts catalog entries to unsaved lodges.
func (c *CatalogConfig) ToLodges() []*models.Lodge {
	lodges := make([]*models.Lodge, 0, len(c.Lodges))
	for _, l := range c.Lodges {
		lodgeType := models.LodgeType(l.LodgeType)
		if lodgeType == "" {
			lodgeType = models.LodgeHotelRoom
		}
		available := true
		if l.Available != nil {
			available = *l.Available
		}
		lodges = append(lodges, &models.Lodge{
			Name:             l.Name,
			Description:      l.Description,
			ShortDescription: l.ShortDescription,
			PricePerNight:    l.PricePerNight,
			MaxGuests:        l.MaxGuests,
			LodgeType:        lodgeType,
			Amenities:        append([]string(nil), l.Amenities...),
			Location:         l.Location,
			Images:           append([]string(nil), l.Images...),
			Featured:         l.Featured,
			Available:        available,
		})
	}
	return lodges
}
