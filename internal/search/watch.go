package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/regindex/internal/store"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads s from path whenever the file is written or replaced, until
// ctx is canceled. Bursts of events within delay trigger a single reload. A
// file that fails to load leaves the current index in place.
func Watch(ctx context.Context, s *Searcher, path string, delay time.Duration, log *slog.Logger) error {
	target := filepath.Clean(path)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: SaveJSON replaces the file by rename.
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer fsw.Close()
		ticker := time.NewTicker(delay)
		defer ticker.Stop()

		pending := false
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
					pending = true
				}

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Error("index watcher error", "error", err)

			case <-ticker.C:
				if !pending {
					continue
				}
				pending = false
				reload(s, target, log)
			}
		}
	}()
	return nil
}

func reload(s *Searcher, path string, log *slog.Logger) {
	idx, err := store.LoadJSON(path)
	if err != nil {
		log.Warn("index reload failed, keeping current index", "path", path, "error", err)
		return
	}
	s.Replace(idx)
	log.Info("index reloaded", "path", path, "chunks", len(idx.Chunks))
}
