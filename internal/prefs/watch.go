package prefs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads preferences when the file is changed by another process
// and calls onChange with the new values. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(Values)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so atomic replaces are seen.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	slog.Debug("Watching preferences", "path", s.path)

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if v, changed := s.Reload(); changed {
				slog.Info("Preferences reloaded", "path", s.path, "theme", v.Theme)
				if onChange != nil {
					onChange(v)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Preferences watcher error", "error", err)
		}
	}
}
