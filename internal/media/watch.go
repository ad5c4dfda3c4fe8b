package media

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"storefront/pkg/fetch"
)

// Watch drops the cached list whenever the local manifest file changes, so
// the next Files call rescans it. It blocks until ctx is done. Remote
// manifests are not watched.
func (l *Library) Watch(ctx context.Context) error {
	if l.Manifest == "" || fetch.IsRemote(l.Manifest) {
		return nil
	}
	target, err := filepath.Abs(l.Manifest)
	if err != nil {
		return fmt.Errorf("resolve manifest path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// the directory, since editors replace the file by rename
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	l.Logger.Info("watching media manifest", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				l.Refresh()
				l.Logger.Info("media manifest changed", zap.String("op", ev.Op.String()))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Logger.Warn("media manifest watcher", zap.Error(err))
		}
	}
}
