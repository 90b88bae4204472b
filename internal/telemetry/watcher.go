package telemetry

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

// Watch re-loads the source whenever its snapshot file changes on disk.
// A failed reload keeps the previous reading; the error is only logged.
// Blocks until ctx is cancelled.
func (s *Source) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory rather than the file itself: editors and
	// atomic-rename writers replace the inode.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}

	target := filepath.Clean(s.path)
	s.logger.Info("Watching snapshot for changes", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Load(); err != nil {
				log.Error(err, "Snapshot reload failed, keeping previous reading", "path", target)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(err, "Snapshot watcher error")
		}
	}
}
