package config

import (
	"context"
	"fmt"
	"os"
	"time"
)

// CatalogWatcher polls the catalog file and reports each valid new version.
type CatalogWatcher struct {
	Path     string
	Interval time.Duration
	OnUpdate func(*CatalogConfig)
	// OnError receives reload failures. The last good catalog stays in effect.
	OnError func(error)

	mod  time.Time
	size int64
}

// changed reports whether the file differs from the last seen version.
func (w *CatalogWatcher) changed(info os.FileInfo) bool {
	return info.ModTime().After(w.mod) || info.Size() != w.size
}

// prime validates the current file and remembers it without reporting it. Startup seeding
// already used it, and reapplying it would undo admin changes made since.
func (w *CatalogWatcher) prime() error {
	info, err := os.Stat(w.Path)
	if err != nil {
		return err
	}
	if _, err := LoadCatalog(w.Path); err != nil {
		return err
	}
	w.mod, w.size = info.ModTime(), info.Size()
	return nil
}

func (w *CatalogWatcher) reload() error {
	info, err := os.Stat(w.Path)
	if err != nil {
		return err
	}
	if !w.changed(info) {
		return nil
	}
	cfg, err := LoadCatalog(w.Path)
	// A broken file is remembered too, so it is reported once rather than every tick.
	w.mod, w.size = info.ModTime(), info.Size()
	if err != nil {
		return err
	}
	if w.OnUpdate != nil {
		w.OnUpdate(cfg)
	}
	return nil
}

// Start checks the catalog once, failing if it cannot be loaded, and then polls until ctx
// is done. Only versions written after Start reach OnUpdate.
func (w *CatalogWatcher) Start(ctx context.Context) error {
	if w.Path == "" {
		w.Path = "configs/lodges.yaml"
	}
	if w.Interval <= 0 {
		w.Interval = 30 * time.Second
	}
	if err := w.prime(); err != nil {
		return fmt.Errorf("load catalog %s: %w", w.Path, err)
	}

	go func() {
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		var lastErr string
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := w.reload()
				if err == nil {
					lastErr = ""
					continue
				}
				if err.Error() != lastErr && w.OnError != nil {
					w.OnError(err)
				}
				lastErr = err.Error()
			}
		}
	}()
	return nil
}

// WatchCatalog starts a CatalogWatcher for path.
func WatchCatalog(ctx context.Context, path string, interval time.Duration, onUpdate func(*CatalogConfig), onError func(error)) error {
	w := &CatalogWatcher{Path: path, Interval: interval, OnUpdate: onUpdate, OnError: onError}
	return w.Start(ctx)
}
