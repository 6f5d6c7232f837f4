package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"yatrinivas/internal/database"
)

// Ledger remembers which bookings were already reminded so restarts do not resend.
type Ledger struct {
	kv database.KV
	mu sync.Mutex
}

func NewLedger(kv database.KV) *Ledger {
	return &Ledger{kv: kv}
}

func (l *Ledger) load(ctx context.Context) (map[string]time.Time, error) {
	raw, err := l.kv.Get(ctx, database.KeyReminders)
	if errors.Is(err, database.ErrKeyNotFound) {
		return map[string]time.Time{}, nil
	}
	if err != nil {
		return nil, err
	}
	sent := map[string]time.Time{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &sent); err != nil {
			return nil, fmt.Errorf("decode %s: %w", database.KeyReminders, err)
		}
	}
	return sent, nil
}

func (l *Ledger) save(ctx context.Context, sent map[string]time.Time) error {
	raw, err := json.Marshal(sent)
	if err != nil {
		return err
	}
	return l.kv.Set(ctx, database.KeyReminders, raw)
}

// WasSent reports whether bookingID has been reminded.
func (l *Ledger) WasSent(ctx context.Context, bookingID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sent, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := sent[bookingID]
	return ok, nil
}

func (l *Ledger) MarkSent(ctx context.Context, bookingID string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	sent, err := l.load(ctx)
	if err != nil {
		return err
	}
	sent[bookingID] = at.UTC()
	return l.save(ctx, sent)
}

// Cleanup forgets reminders sent before cutoff and returns how many were dropped.
func (l *Ledger) Cleanup(ctx context.Context, cutoff time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sent, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for id, at := range sent {
		if at.Before(cutoff) {
			delete(sent, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, l.save(ctx, sent)
}
