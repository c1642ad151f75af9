package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/udisondev/bossengine/internal/boss"
)

const defaultDebounce = 100 * time.Millisecond

// TunablesWatcher reloads a tunables file whenever it changes on disk. Invalid
// edits are logged and skipped; the last good tunables stay in effect.
type TunablesWatcher struct {
	path     string
	apply    func(boss.Tunables) error
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewTunablesWatcher watches path's directory, so editors that replace the
// file by rename are still picked up. apply receives every valid reload.
func NewTunablesWatcher(path string, apply func(boss.Tunables) error) (*TunablesWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}
	return &TunablesWatcher{
		path:     filepath.Clean(path),
		apply:    apply,
		debounce: defaultDebounce,
		watcher:  w,
	}, nil
}

// Run delivers reloads until ctx is canceled, then closes the watcher.
func (w *TunablesWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	// A burst of writes from one save collapses into a single reload.
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("tunables watcher error", "path", w.path, "err", err)

		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *TunablesWatcher) reload() {
	t, err := boss.LoadTunables(w.path)
	if err != nil {
		slog.Error("tunables reload rejected", "path", w.path, "err", err)
		return
	}
	if err := w.apply(t); err != nil {
		slog.Error("tunables reload not applied", "path", w.path, "err", err)
		return
	}
	slog.Info("tunables reloaded", "path", w.path)
}
