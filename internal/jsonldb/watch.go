package jsonldb

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	crmerrors "github.com/maruel/pcrm/internal/errors"
)

// debounce coalesces the truncate and write events of a single Write.
const debounce = 100 * time.Millisecond

// Watch calls fn with the changed path every time one of paths is written or
// recreated. It blocks until ctx is done and then returns ctx.Err().
//
// The parent directories are watched rather than the files themselves so that
// files replaced by editors keep being tracked.
func Watch(ctx context.Context, paths []string, fn func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return crmerrors.FileError("failed to create watcher", err)
	}
	defer func() { _ = w.Close() }()

	want := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		p = filepath.Clean(p)
		want[p] = true
		dirs[filepath.Dir(p)] = true
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return crmerrors.FileError("failed to watch "+d, err)
		}
	}

	var pending string
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !want[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = event.Name
				fire = time.After(debounce)
			}
		case <-fire:
			fire = nil
			fn(pending)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Error watching tables", "err", err)
		}
	}
}
