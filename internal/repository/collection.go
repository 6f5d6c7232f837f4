package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"time"

	"yatrinivas/internal/database"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidPatch = errors.New("invalid patch")
)

// Entity is a record stored in a collection.
type Entity interface {
	GetID() string
	SetID(string)
	GetCreatedDate() time.Time
	SetCreatedDate(time.Time)
}

// Sort orders accepted by List.
const (
	OrderCreatedAsc  = "created_date"
	OrderCreatedDesc = "-created_date"
)

// Collection persists a list of records as one JSON array under a single key.
// Every operation waits the configured latency first.
type Collection[T Entity] struct {
	kv     database.KV
	key    string
	prefix string
	entity string
	delay  time.Duration
	now    func() time.Time

	mu sync.Mutex
}

func NewCollection[T Entity](kv database.KV, key, prefix, entity string, delay time.Duration) *Collection[T] {
	return &Collection[T]{
		kv:     kv,
		key:    key,
		prefix: prefix,
		entity: entity,
		delay:  delay,
		now:    time.Now,
	}
}

// newID builds <prefix>_<random base36>_<unix ms>.
func (c *Collection[T]) newID() string {
	return fmt.Sprintf("%s_%s_%d", c.prefix, strconv.FormatUint(rand.Uint64(), 36), c.now().UnixMilli())
}

func (c *Collection[T]) notFound() error {
	return fmt.Errorf("%s %w", c.entity, ErrNotFound)
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	raw, err := c.kv.Get(ctx, c.key)
	if errors.Is(err, database.ErrKeyNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) save(ctx context.Context, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	return c.kv.Set(ctx, c.key, raw)
}

// List returns every record, ordered by orderBy ("created_date", "-created_date" or storage order).
func (c *Collection[T]) List(ctx context.Context, orderBy string) ([]T, error) {
	if err := sleep(ctx, c.delay); err != nil {
		return nil, err
	}
	c.mu.Lock()
	items, err := c.load(ctx)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	switch orderBy {
	case OrderCreatedDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].GetCreatedDate().After(items[j].GetCreatedDate())
		})
	case OrderCreatedAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].GetCreatedDate().Before(items[j].GetCreatedDate())
		})
	}
	return items, nil
}

// Filter returns records whose JSON fields equal every value in where.
func (c *Collection[T]) Filter(ctx context.Context, where map[string]any) ([]T, error) {
	items, err := c.List(ctx, "")
	if err != nil {
		return nil, err
	}
	cond, err := normalize(where)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		fields, err := normalize(item)
		if err != nil {
			return nil, err
		}
		if matches(fields, cond) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Get returns the record with id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	items, err := c.List(ctx, "")
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.GetID() == id {
			return item, nil
		}
	}
	return zero, c.notFound()
}

// Create assigns an id and creation time, appends the record and persists it.
func (c *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	if err := sleep(ctx, c.delay); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	item.SetID(c.newID())
	item.SetCreatedDate(c.now().UTC())
	items = append(items, item)
	if err := c.save(ctx, items); err != nil {
		return zero, err
	}
	return item, nil
}

// Update shallow-merges patch into the stored record. id and created_date are kept.
func (c *Collection[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	if err := sleep(ctx, c.delay); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return zero, c.notFound()
	}

	fields, err := normalize(items[idx])
	if err != nil {
		return zero, err
	}
	for k, v := range patch {
		if k == "id" || k == "created_date" {
			continue
		}
		fields[k] = v
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	var merged T
	if err := json.Unmarshal(raw, &merged); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	items[idx] = merged
	if err := c.save(ctx, items); err != nil {
		return zero, err
	}
	return merged, nil
}

// Delete removes the record with id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := sleep(ctx, c.delay); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return c.notFound()
	}
	items = append(items[:idx], items[idx+1:]...)
	return c.save(ctx, items)
}

// Seed writes items when the bucket has never been written. Records without an id
// or creation time get one. It reports whether anything was written.
func (c *Collection[T]) Seed(ctx context.Context, items []T) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.kv.Get(ctx, c.key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrKeyNotFound) {
		return false, err
	}

	for _, item := range items {
		if item.GetID() == "" {
			item.SetID(c.newID())
		}
		if item.GetCreatedDate().IsZero() {
			item.SetCreatedDate(c.now().UTC())
		}
	}
	if items == nil {
		items = []T{}
	}
	return true, c.save(ctx, items)
}

func indexOf[T Entity](items []T, id string) int {
	for i, item := range items {
		if item.GetID() == id {
			return i
		}
	}
	return -1
}

// normalize round-trips v through JSON so Go values compare like stored ones.
func normalize(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func matches(fields, cond map[string]any) bool {
	for k, want := range cond {
		if !reflect.DeepEqual(fields[k], want) {
			return false
		}
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
