package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce collapses the burst of events one save produces.
var debounce = 500 * time.Millisecond

// Watch monitors the config file at path, and the csv source it names, and
// calls onChange with the newly loaded Config after each change settles.
// It runs until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and onChange
// is not called; the caller keeps its previous config.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	source := ""
	if cfg, err := Load(path); err == nil {
		source = watchSource(watcher, "", cfg)
	}

	slog.Info("config: watching for changes", "path", path, "source", source)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename (atomic save), so Create counts
			// as a write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}

			slog.Info("config: reloaded", "path", path)
			onChange(cfg)

			// Re-add the files in case an atomic save replaced the inode.
			_ = watcher.Add(path)
			source = watchSource(watcher, source, cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// watchSource adds the csv source of cfg to w and drops the previous one.
// It returns the path now watched.
func watchSource(w *fsnotify.Watcher, prev string, cfg *Config) string {
	next := ""
	if cfg.Calc.Source.Type == "csv" {
		next = cfg.Calc.Source.Path
	}
	if prev != "" && prev != next {
		_ = w.Remove(prev)
	}
	if next == "" {
		return ""
	}
	if err := w.Add(next); err != nil {
		slog.Warn("config: cannot watch source", "path", next, "err", err)
		return ""
	}
	return next
}
