package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch calls onChange after worktree activity settles for debounce, until
// ctx is done. New directories are watched as they appear.
func (w *LocalWorkspace) Watch(ctx context.Context, debounce time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.watchTree(watcher, w.Root); err != nil {
		return err
	}

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
			if !w.relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchTree(watcher, event.Name); err != nil {
						w.Logger.Warn("watching new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Error("watcher error", zap.Error(err))

		case <-timer.C:
			onChange()
		}
	}
}

func (w *LocalWorkspace) watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.Root {
			rel, err := filepath.Rel(w.Root, path)
			if err != nil {
				return err
			}
			if w.ShouldIgnore(rel) {
				return filepath.SkipDir
			}
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("adding directory to watcher: %w", err)
		}
		return nil
	})
}

// relevant drops events for ignored paths and bare chmods.
func (w *LocalWorkspace) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.Root, event.Name)
	if err != nil {
		return false
	}
	return !w.ShouldIgnore(rel)
}
