package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"yatrinivas/internal/events"
	"yatrinivas/internal/models"
	"yatrinivas/internal/pricing"
	"yatrinivas/internal/repository"

	"github.com/rs/zerolog"
)

// DefaultMaxPrice is the upper end of the price slider.
const DefaultMaxPrice = 20000

// LodgeRepository is the lodge collection.
type LodgeRepository interface {
	List(ctx context.Context, orderBy string) ([]*models.Lodge, error)
	Filter(ctx context.Context, where map[string]any) ([]*models.Lodge, error)
	Get(ctx context.Context, id string) (*models.Lodge, error)
	Create(ctx context.Context, lodge *models.Lodge) (*models.Lodge, error)
	Update(ctx context.Context, id string, patch map[string]any) (*models.Lodge, error)
	Delete(ctx context.Context, id string) error
}

// BookingRepository is the booking collection.
type BookingRepository interface {
	List(ctx context.Context, orderBy string) ([]*models.Booking, error)
	Filter(ctx context.Context, where map[string]any) ([]*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	Update(ctx context.Context, id string, patch map[string]any) (*models.Booking, error)
	Delete(ctx context.Context, id string) error
}

// CatalogIndex persists which lodges came from the catalog file.
type CatalogIndex interface {
	Load(ctx context.Context) (map[string]repository.CatalogEntry, error)
	Save(ctx context.Context, entries map[string]repository.CatalogEntry) error
}

// Publisher emits domain events.
type Publisher interface {
	PublishJSON(eventType, key string, payload any) error
}

// LodgeFilter narrows the catalog. Every active criterion must hold.
type LodgeFilter struct {
	MinPrice float64
	MaxPrice float64
	// Guests is the minimum capacity; zero disables the check.
	Guests int
	// Amenities matches lodges offering any of the listed amenities.
	Amenities []string
	// Types matches lodges of any of the listed types.
	Types        []models.LodgeType
	FeaturedOnly bool
}

// DefaultLodgeFilter spans the whole price slider.
func DefaultLodgeFilter() LodgeFilter {
	return LodgeFilter{MinPrice: 0, MaxPrice: DefaultMaxPrice}
}

// Match reports whether an available lodge satisfies the filter.
func (f LodgeFilter) Match(l *models.Lodge) bool {
	if !l.Available {
		return false
	}
	if l.PricePerNight < f.MinPrice || l.PricePerNight > f.MaxPrice {
		return false
	}
	if f.Guests > 0 && l.MaxGuests < f.Guests {
		return false
	}
	if f.FeaturedOnly && !l.Featured {
		return false
	}
	if len(f.Amenities) > 0 {
		found := false
		for _, a := range f.Amenities {
			if l.HasAmenity(a) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if l.LodgeType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// LodgeInput is the editable part of a lodge.
type LodgeInput struct {
	Name             string           `json:"name" validate:"required,max=200"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"short_description" validate:"max=300"`
	PricePerNight    float64          `json:"price_per_night" validate:"gt=0"`
	MaxGuests        int              `json:"max_guests" validate:"gte=1,lte=50"`
	LodgeType        models.LodgeType `json:"lodge_type" validate:"omitempty,oneof=hotel_room cabin cottage suite deluxe"`
	Amenities        []string         `json:"amenities"`
	Location         string           `json:"location"`
	Images           []string         `json:"images" validate:"dive,required"`
	Featured         bool             `json:"featured"`
	Available        *bool            `json:"available,omitempty"`
}

func (in *LodgeInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
	in.Location = strings.TrimSpace(in.Location)
	if in.LodgeType == "" {
		in.LodgeType = models.LodgeHotelRoom
	}
}

func (in *LodgeInput) validate() error {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		fields, _ := failedFields(err)
		return invalid("Please check the lodge details: "+strings.Join(fields, ", "), fields...)
	}
	return nil
}

// patchFor returns the normalized values of the keys present in patch.
func (in *LodgeInput) patchFor(patch map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	all := map[string]any{}
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(patch))
	for k := range patch {
		out[k] = all[k]
	}
	return out, nil
}

func (in *LodgeInput) toLodge() *models.Lodge {
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	return &models.Lodge{
		Name:             in.Name,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		PricePerNight:    in.PricePerNight,
		MaxGuests:        in.MaxGuests,
		LodgeType:        in.LodgeType,
		Amenities:        append([]string{}, in.Amenities...),
		Location:         in.Location,
		Images:           append([]string{}, in.Images...),
		Featured:         in.Featured,
		Available:        available,
	}
}

// LodgeService serves the catalog, lodge detail pricing and lodge administration.
type LodgeService struct {
	lodges   LodgeRepository
	bookings BookingRepository
	catalog  CatalogIndex
	events   Publisher
	logger   *zerolog.Logger
}

// NewLodgeService builds the service. catalog may be nil when no catalog file is synced.
func NewLodgeService(lodges LodgeRepository, bookings BookingRepository, catalog CatalogIndex, pub Publisher, logger *zerolog.Logger) *LodgeService {
	return &LodgeService{lodges: lodges, bookings: bookings, catalog: catalog, events: pub, logger: logger}
}

// List returns every lodge, newest first.
func (s *LodgeService) List(ctx context.Context) ([]*models.Lodge, error) {
	return s.lodges.List(ctx, repository.OrderCreatedDesc)
}

// Search returns available lodges matching f, newest first.
func (s *LodgeService) Search(ctx context.Context, f LodgeFilter) ([]*models.Lodge, error) {
	all, err := s.lodges.List(ctx, repository.OrderCreatedDesc)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Lodge, 0, len(all))
	for _, l := range all {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Featured returns lodges flagged featured, as the home page shows them.
func (s *LodgeService) Featured(ctx context.Context, limit int) ([]*models.Lodge, error) {
	lodges, err := s.lodges.Filter(ctx, map[string]any{"featured": true})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(lodges) > limit {
		lodges = lodges[:limit]
	}
	return lodges, nil
}

func (s *LodgeService) Get(ctx context.Context, id string) (*models.Lodge, error) {
	return s.lodges.Get(ctx, id)
}

// Quote prices a stay at lodge id.
func (s *LodgeService) Quote(ctx context.Context, id, checkIn, checkOut string, guests int) (pricing.Quote, error) {
	lodge, err := s.lodges.Get(ctx, id)
	if err != nil {
		return pricing.Quote{}, err
	}
	q, err := pricing.NewQuote(lodge, checkIn, checkOut, guests)
	if err != nil {
		return pricing.Quote{}, invalid(err.Error(), "check_in", "check_out")
	}
	return q, nil
}

// BookedDates lists dates in [from, to] covered by confirmed bookings of lodge id.
func (s *LodgeService) BookedDates(ctx context.Context, id string, from, to time.Time) ([]string, error) {
	if _, err := s.lodges.Get(ctx, id); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, invalid("'to' must not be before 'from'", "from", "to")
	}
	if to.Sub(from) > 366*24*time.Hour {
		return nil, invalid("date range must not exceed one year", "from", "to")
	}
	bookings, err := s.bookings.Filter(ctx, map[string]any{
		"lodge_id": id,
		"status":   models.StatusConfirmed,
	})
	if err != nil {
		return nil, err
	}
	return pricing.BookedDates(bookings, id, from, to), nil
}

func (s *LodgeService) Create(ctx context.Context, in LodgeInput) (*models.Lodge, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	lodge, err := s.lodges.Create(ctx, in.toLodge())
	if err != nil {
		return nil, err
	}
	s.publish(lodge, "created")
	return lodge, nil
}

// Update merges patch into lodge id after checking the merged lodge is still valid.
func (s *LodgeService) Update(ctx context.Context, id string, patch map[string]any) (*models.Lodge, error) {
	current, err := s.lodges.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := mergeLodgeInput(current, patch)
	if err != nil {
		return nil, err
	}
	if err := merged.validate(); err != nil {
		return nil, err
	}
	normalized, err := merged.patchFor(patch)
	if err != nil {
		return nil, err
	}

	lodge, err := s.lodges.Update(ctx, id, normalized)
	if errors.Is(err, repository.ErrInvalidPatch) {
		return nil, invalid(err.Error())
	}
	if err != nil {
		return nil, err
	}
	s.publish(lodge, "updated")
	return lodge, nil
}

func (s *LodgeService) Delete(ctx context.Context, id string) error {
	if err := s.lodges.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(&models.Lodge{ID: id}, "deleted")
	return nil
}

// Import validates every entry first and then creates them in order.
func (s *LodgeService) Import(ctx context.Context, inputs []LodgeInput) ([]*models.Lodge, error) {
	if len(inputs) == 0 {
		return nil, invalid("Import file contains no lodges")
	}
	for i := range inputs {
		if err := inputs[i].validate(); err != nil {
			return nil, invalid(fmt.Sprintf("lodge #%d: %s", i+1, err.Error()))
		}
	}

	created := make([]*models.Lodge, 0, len(inputs))
	for i := range inputs {
		lodge, err := s.lodges.Create(ctx, inputs[i].toLodge())
		if err != nil {
			return created, fmt.Errorf("import lodge %q: %w", inputs[i].Name, err)
		}
		created = append(created, lodge)
	}
	s.logger.Info().Int("count", len(created)).Msg("Lodges imported")
	return created, nil
}

// SyncCatalog applies a changed catalog file. Catalog lodges are tracked by name: a lodge is
// created once, later syncs only change the fields whose catalog value changed, and a lodge
// deleted by an admin is not brought back.
func (s *LodgeService) SyncCatalog(ctx context.Context, catalog []*models.Lodge) (created, updated int, err error) {
	if s.catalog == nil {
		return 0, 0, errors.New("catalog index not configured")
	}
	index, err := s.catalog.Load(ctx)
	if err != nil {
		return 0, 0, err
	}
	existing, err := s.lodges.List(ctx, "")
	if err != nil {
		return 0, 0, err
	}
	byID := make(map[string]*models.Lodge, len(existing))
	byName := make(map[string]*models.Lodge, len(existing))
	for _, l := range existing {
		byID[l.ID] = l
		byName[repository.CatalogKey(l.Name)] = l
	}

	defer func() {
		if serr := s.catalog.Save(ctx, index); serr != nil && err == nil {
			err = fmt.Errorf("save catalog index: %w", serr)
		}
	}()

	for _, l := range catalog {
		key := repository.CatalogKey(l.Name)
		fields, err := repository.CatalogFields(l)
		if err != nil {
			return created, updated, err
		}

		if entry, ok := index[key]; ok {
			if _, alive := byID[entry.LodgeID]; !alive {
				continue
			}
			patch := changedFields(entry.Fields, fields)
			if len(patch) > 0 {
				if _, err := s.lodges.Update(ctx, entry.LodgeID, patch); err != nil {
					return created, updated, fmt.Errorf("update %q: %w", l.Name, err)
				}
				updated++
			}
			index[key] = repository.CatalogEntry{LodgeID: entry.LodgeID, Fields: fields}
			continue
		}

		if cur, ok := byName[key]; ok {
			if _, err := s.lodges.Update(ctx, cur.ID, fields); err != nil {
				return created, updated, fmt.Errorf("update %q: %w", l.Name, err)
			}
			index[key] = repository.CatalogEntry{LodgeID: cur.ID, Fields: fields}
			updated++
			continue
		}

		lodge, err := s.lodges.Create(ctx, l)
		if err != nil {
			return created, updated, fmt.Errorf("create %q: %w", l.Name, err)
		}
		index[key] = repository.CatalogEntry{LodgeID: lodge.ID, Fields: fields}
		created++
	}

	s.logger.Info().Int("created", created).Int("updated", updated).Msg("Lodge catalog synced")
	return created, updated, nil
}

// changedFields returns the entries of next that differ from prev.
func changedFields(prev, next map[string]any) map[string]any {
	patch := map[string]any{}
	for k, v := range next {
		if !reflect.DeepEqual(prev[k], v) {
			patch[k] = v
		}
	}
	return patch
}

func (s *LodgeService) publish(l *models.Lodge, action string) {
	if s.events == nil {
		return
	}
	payload := map[string]any{"action": action, "lodge": l}
	if err := s.events.PublishJSON(events.LodgeChanged, l.ID, payload); err != nil {
		s.logger.Warn().Err(err).Str("lodge_id", l.ID).Msg("Failed to publish lodge event")
	}
}

var editableLodgeFields = map[string]bool{
	"name": true, "description": true, "short_description": true, "price_per_night": true,
	"max_guests": true, "lodge_type": true, "amenities": true, "location": true,
	"images": true, "featured": true, "available": true,
}

func mergeLodgeInput(current *models.Lodge, patch map[string]any) (*LodgeInput, error) {
	if len(patch) == 0 {
		return nil, invalid("No fields to update")
	}
	fields := map[string]any{}
	raw, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for k, v := range patch {
		if !editableLodgeFields[k] {
			return nil, invalid(fmt.Sprintf("unknown field %q", k), k)
		}
		fields[k] = v
	}
	delete(fields, "id")
	delete(fields, "created_date")

	raw, err = json.Marshal(fields)
	if err != nil {
		return nil, invalid(err.Error())
	}
	var in LodgeInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, invalid("Please check the lodge details: " + err.Error())
	}
	return &in, nil
}
