package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config at path whenever it changes on disk and hands each
// valid result to onChange. The parent directory is watched rather than the
// file, so a save that replaces the file by rename is seen as well as an
// in-place write. A file that fails to load is logged and skipped, leaving the
// caller on its current settings. Watch returns nil once ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	target := filepath.Clean(path)
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("relay config: watch: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("relay config: watch: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("relay config: watch %q: %w", filepath.Dir(target), err)
	}
	slog.Info("config watcher started", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if isReloadTrigger(target, ev) {
				reload(target, onChange)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("config watcher error", "path", target, "err", err)
		}
	}
}

// isReloadTrigger reports whether ev may have changed the contents of target.
// Other files in the same directory are ignored.
func isReloadTrigger(target string, ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func reload(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		slog.Warn("config reload rejected, keeping current settings", "path", path, "err", err)
		return
	}
	slog.Info("config reloaded", "path", path, "log_level", cfg.Log.SlogLevel().String())
	onChange(cfg)
}
