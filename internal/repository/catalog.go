package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"yatrinivas/internal/database"
	"yatrinivas/internal/models"
)

// CatalogEntry links a catalog file lodge to the record it produced.
type CatalogEntry struct {
	LodgeID string `json:"lodge_id"`
	// Fields are the catalog values last applied to the record.
	Fields map[string]any `json:"fields"`
}

// CatalogIndex remembers which lodges came from the catalog file, keyed by lower-cased name.
type CatalogIndex struct {
	kv database.KV
	mu sync.Mutex
}

func NewCatalogIndex(kv database.KV) *CatalogIndex {
	return &CatalogIndex{kv: kv}
}

// CatalogKey is the index key of a catalog lodge name.
func CatalogKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CatalogFields are the lodge attributes a catalog file controls, in stored form.
func CatalogFields(l *models.Lodge) (map[string]any, error) {
	all, err := normalize(l)
	if err != nil {
		return nil, err
	}
	delete(all, "id")
	delete(all, "created_date")
	return all, nil
}

func (c *CatalogIndex) Load(ctx context.Context) (map[string]CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.kv.Get(ctx, database.KeyCatalog)
	if errors.Is(err, database.ErrKeyNotFound) {
		return map[string]CatalogEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	entries := map[string]CatalogEntry{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decode %s: %w", database.KeyCatalog, err)
		}
	}
	return entries, nil
}

func (c *CatalogIndex) Save(ctx context.Context, entries map[string]CatalogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, database.KeyCatalog, raw)
}

// Record adds lodges created from the catalog to the index.
func (c *CatalogIndex) Record(ctx context.Context, lodges []*models.Lodge) error {
	entries, err := c.Load(ctx)
	if err != nil {
		return err
	}
	for _, l := range lodges {
		fields, err := CatalogFields(l)
		if err != nil {
			return err
		}
		entries[CatalogKey(l.Name)] = CatalogEntry{LodgeID: l.ID, Fields: fields}
	}
	return c.Save(ctx, entries)
}
