package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the input artifact and calls refresh each time the
// file is written. It runs until ctx is cancelled.
//
// If a refresh fails, for example while the artifact is mid-rewrite,
// the error is logged and the previously rendered image stays in place.
func Watch(ctx context.Context, input string, refresh func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("render: watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(input); err != nil {
		return fmt.Errorf("render: watch %s: %w", input, err)
	}

	slog.Info("render: watching artifact", "path", input)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only refresh on write or create events. Atomic writers
			// publish via rename, which arrives as fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// Re-add before refreshing: a rename replaced the inode, and
			// the stale watch would miss the next write even when this
			// refresh fails.
			_ = watcher.Add(input)

			if err := refresh(); err != nil {
				slog.Error("render: refresh failed, keeping previous image",
					"path", input, "err", err)
				continue
			}
			slog.Info("render: chart refreshed", "path", input)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("render: watcher error", "err", err)
		}
	}
}
