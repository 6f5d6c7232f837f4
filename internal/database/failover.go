package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverKV serves from primary and switches to fallback while primary is failing.
// Successful writes to primary are mirrored to fallback so it stays warm.
type FailoverKV struct {
	primary  KV
	fallback KV
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverKV(primary, fallback KV, logger *zerolog.Logger) *FailoverKV {
	return &FailoverKV{primary: primary, fallback: fallback, logger: logger}
}

// usePrimary reports whether primary should be tried. While down, primary is retried
// once per recoveryInterval.
func (f *FailoverKV) usePrimary() bool {
	if !f.isDown.Load() {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if time.Since(f.lastCheck) < recoveryInterval {
		return false
	}
	f.lastCheck = time.Now()
	return true
}

func (f *FailoverKV) markDown(err error) {
	if !f.isDown.Swap(true) {
		f.logger.Warn().Err(err).Msg("Primary store failed, switching to fallback")
	}
	f.mu.Lock()
	f.lastCheck = time.Now()
	f.mu.Unlock()
}

func (f *FailoverKV) markUp() {
	if f.isDown.Swap(false) {
		f.logger.Info().Msg("Primary store recovered")
	}
}

func (f *FailoverKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.usePrimary() {
		v, err := f.primary.Get(ctx, key)
		if err == nil || errors.Is(err, ErrKeyNotFound) {
			f.markUp()
			return v, err
		}
		f.markDown(err)
	}
	return f.fallback.Get(ctx, key)
}

func (f *FailoverKV) Set(ctx context.Context, key string, value []byte) error {
	if f.usePrimary() {
		err := f.primary.Set(ctx, key, value)
		if err == nil {
			f.markUp()
			if mirrorErr := f.fallback.Set(ctx, key, value); mirrorErr != nil {
				f.logger.Warn().Err(mirrorErr).Str("key", key).Msg("Failed to mirror write to fallback")
			}
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.Set(ctx, key, value)
}

// Ping succeeds while either store is reachable.
func (f *FailoverKV) Ping(ctx context.Context) error {
	if err := f.primary.Ping(ctx); err == nil {
		return nil
	}
	return f.fallback.Ping(ctx)
}

func (f *FailoverKV) Close() error {
	return errors.Join(f.primary.Close(), f.fallback.Close())
}
