package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/phobologic/routeaudit/internal/discover"
	"github.com/phobologic/routeaudit/internal/lang"
	"github.com/phobologic/routeaudit/internal/logging"
)

const watchDebounce = 300 * time.Millisecond

// watchTree calls trigger, debounced, whenever a file under root for which
// relevant returns true changes. trigger runs on the calling goroutine, so
// runs never overlap. It returns when ctx is cancelled.
func watchTree(ctx context.Context, root string, relevant func(path string) bool, trigger func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, root); err != nil {
		return err
	}
	logging.Log.Infof("watching %s", root)

	deb := newDebouncer(watchDebounce)
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deb.fire:
			trigger()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !skippedDir(fi.Name()) {
					_ = addWatchRecursive(watcher, ev.Name)
				}
			}
			if relevant(ev.Name) {
				deb.poke()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Log.Warnf("watch: %v", err)
		}
	}
}

// debouncer coalesces pokes into at most one pending signal on fire, sent
// once delay has passed without another poke.
type debouncer struct {
	delay time.Duration
	fire  chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, fire: make(chan struct{}, 1)}
}

func (d *debouncer) poke() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.fire <- struct{}{}:
		default:
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && skippedDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func skippedDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, d := range discover.DefaultSkipDirs {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// watchFilter accepts audited source files and rejects the run's own outputs.
func watchFilter(suffixes []string, outputs ...string) func(string) bool {
	own := make(map[string]struct{}, len(outputs))
	for _, o := range outputs {
		if o == "" {
			continue
		}
		if abs, err := filepath.Abs(o); err == nil {
			own[abs] = struct{}{}
		}
	}
	return func(path string) bool {
		if abs, err := filepath.Abs(path); err == nil {
			if _, ok := own[abs]; ok {
				return false
			}
		}
		if strings.Contains(filepath.Base(path), ".tmp.") {
			return false
		}
		return lang.HasSuffix(path, suffixes)
	}
}
