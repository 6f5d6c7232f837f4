// Package google mirrors bookings into a Google Sheets spreadsheet for the front desk.
package google

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"yatrinivas/internal/config"
	"yatrinivas/internal/models"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const timestampLayout = "2006-01-02 15:04:05"

var header = []interface{}{
	"ID", "Booking Number", "Lodge", "Guest", "Email", "Phone",
	"Check-in", "Check-out", "Nights", "Guests", "Total", "Status", "Payment", "Created",
}

// valuesAPI is the subset of the Sheets values API in use.
type valuesAPI interface {
	Append(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) (string, error)
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error
	Clear(ctx context.Context, spreadsheetID, rng string) error
}

type sheetsValues struct {
	srv *sheets.Service
}

func (v sheetsValues) Append(ctx context.Context, id, rng string, rows [][]interface{}) (string, error) {
	resp, err := v.srv.Spreadsheets.Values.Append(id, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if resp.Updates == nil {
		return "", nil
	}
	return resp.Updates.UpdatedRange, nil
}

func (v sheetsValues) Update(ctx context.Context, id, rng string, rows [][]interface{}) error {
	_, err := v.srv.Spreadsheets.Values.Update(id, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (v sheetsValues) Clear(ctx context.Context, id, rng string) error {
	_, err := v.srv.Spreadsheets.Values.Clear(id, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// SheetsService keeps one row per booking.
type SheetsService struct {
	values        valuesAPI
	spreadsheetID string
	sheetName     string
	logger        *zerolog.Logger

	mu       sync.Mutex
	rowCache map[string]int
	rowLocks map[string]*sync.Mutex
}

// NewSheetsService authenticates with a service account credentials file.
func NewSheetsService(ctx context.Context, cfg config.SheetsConfig, logger *zerolog.Logger) (*SheetsService, error) {
	if cfg.CredentialsFile == "" || cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("google sheets: credentials_file and spreadsheet_id are required")
	}
	srv, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("google sheets: %w", err)
	}
	return newSheetsService(sheetsValues{srv: srv}, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

func newSheetsService(values valuesAPI, spreadsheetID, sheetName string, logger *zerolog.Logger) *SheetsService {
	if sheetName == "" {
		sheetName = "Bookings"
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SheetsService{
		values:        values,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
		rowCache:      make(map[string]int),
		rowLocks:      make(map[string]*sync.Mutex),
	}
}

// AppendBooking writes b to its known row, or appends a new one.
// Calls for the same booking are serialized so a booking gets one row.
func (s *SheetsService) AppendBooking(ctx context.Context, b *models.Booking) error {
	unlock := s.lockBooking(b.ID)
	defer unlock()

	values := [][]interface{}{bookingRowValues(b)}

	if row, ok := s.getCachedRow(b.ID); ok {
		rng := fmt.Sprintf("%s!A%d", s.sheetName, row)
		if err := s.values.Update(ctx, s.spreadsheetID, rng, values); err != nil {
			return fmt.Errorf("update row %d: %w", row, err)
		}
		return nil
	}

	updated, err := s.values.Append(ctx, s.spreadsheetID, s.sheetName+"!A1", values)
	if err != nil {
		return fmt.Errorf("append booking %s: %w", b.ID, err)
	}
	if row, ok := firstRow(updated); ok {
		s.setCachedRow(b.ID, row)
	}
	s.logger.Debug().Str("booking", b.BookingNumber).Str("range", updated).Msg("booking appended to sheet")
	return nil
}

// RemoveBooking blanks the row of a deleted booking and forgets its position.
// Rows are cleared rather than removed so other cached positions stay valid.
func (s *SheetsService) RemoveBooking(ctx context.Context, b *models.Booking) error {
	unlock := s.lockBooking(b.ID)
	defer unlock()

	row, ok := s.getCachedRow(b.ID)
	if !ok {
		return nil
	}
	rng := fmt.Sprintf("%s!A%d:N%d", s.sheetName, row, row)
	if err := s.values.Clear(ctx, s.spreadsheetID, rng); err != nil {
		return fmt.Errorf("clear row %d: %w", row, err)
	}
	s.deleteCacheRow(b.ID)
	return nil
}

// SyncAll rewrites the sheet with the active bookings.
func (s *SheetsService) SyncAll(ctx context.Context, bookings []*models.Booking) error {
	if err := s.values.Clear(ctx, s.spreadsheetID, s.sheetName); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	active := s.filterActiveBookings(bookings)
	rows := make([][]interface{}, 0, len(active)+1)
	rows = append(rows, header)
	for _, b := range active {
		rows = append(rows, bookingRowValues(b))
	}
	if err := s.values.Update(ctx, s.spreadsheetID, s.sheetName+"!A1", rows); err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	s.ClearCache()
	for i, b := range active {
		s.setCachedRow(b.ID, i+2)
	}
	s.logger.Info().Int("rows", len(active)).Msg("sheet synced")
	return nil
}

func (s *SheetsService) filterActiveBookings(bookings []*models.Booking) []*models.Booking {
	active := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	return active
}

func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.BookingNumber,
		b.LodgeName,
		b.GuestName,
		b.GuestEmail,
		b.GuestPhone,
		b.CheckIn,
		b.CheckOut,
		b.NumNights,
		b.NumGuests,
		b.TotalPrice,
		string(b.Status),
		string(b.PaymentStatus),
		b.CreatedDate.UTC().Format(timestampLayout),
	}
}

var rowPattern = regexp.MustCompile(`![A-Z]+(\d+)`)

// firstRow extracts the starting row from an A1 range such as "Bookings!A5:N5".
func firstRow(a1 string) (int, bool) {
	m := rowPattern.FindStringSubmatch(a1)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache[id] = row
}

func (s *SheetsService) deleteCacheRow(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rowCache, id)
}

func (s *SheetsService) lockBooking(id string) func() {
	s.mu.Lock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ClearCache forgets all known row positions.
func (s *SheetsService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache = make(map[string]int)
}
