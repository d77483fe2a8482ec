package api

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/NissanArmada/GazooRazoo/log"
)

// Watch invalidates the cached driver list whenever one of files changes.
// The parent directories are watched, so files replaced by rename are
// noticed as well. Watch returns once the watcher is set up and stops when
// ctx is done.
func (s *Server) Watch(ctx context.Context, files ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	watched := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			watcher.Close()
			return err
		}
		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	l := s.l.Named("watch")
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name, _ := filepath.Abs(event.Name)
				if _, ok := watched[name]; !ok {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {

					l.Info("source file changed, dropping cached drivers",
						log.String("file", name), log.String("op", event.Op.String()))
					s.InvalidateDrivers(ctx)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.Error("watcher error", log.ErrorField(err))
			}
		}
	}()
	return nil
}
