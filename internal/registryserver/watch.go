package registryserver

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultPollInterval is how often a Watcher rescans its paths.
const DefaultPollInterval = 500 * time.Millisecond

// ignoredSegments are directories a Watcher never descends into.
var ignoredSegments = []string{".git", "node_modules", ".uikit"}

// Watcher polls files and directories for modification time changes. It
// reports every changed, added or removed file of one scan in a single
// callback.
type Watcher struct {
	interval time.Duration

	mu          sync.Mutex
	paths       []string
	onChange    func(changed []string)
	running     bool
	stopCh      chan struct{}
	initialized bool
	timestamps  map[string]time.Time
}

// NewWatcher creates a watcher over paths. A zero interval uses
// DefaultPollInterval.
func NewWatcher(paths []string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		interval:   interval,
		paths:      append([]string(nil), paths...),
		timestamps: make(map[string]time.Time),
	}
}

// OnChange sets the callback for changes.
func (w *Watcher) OnChange(fn func(changed []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// SetPaths replaces the watched paths. Files that are no longer watched
// are forgotten without being reported.
func (w *Watcher) SetPaths(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paths = append([]string(nil), paths...)

	current := w.scanLocked()
	for p := range w.timestamps {
		if _, ok := current[p]; !ok {
			delete(w.timestamps, p)
		}
	}
	for p, mod := range current {
		if _, ok := w.timestamps[p]; !ok {
			w.timestamps[p] = mod
		}
	}
}

// Run scans until ctx is done or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.scanInitial()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.markStopped()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// Stop stops a running watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) markStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

func (w *Watcher) scanInitial() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.timestamps = w.scanLocked()
	w.initialized = true
}

// checkForChanges rescans and reports the difference to the last scan.
func (w *Watcher) checkForChanges() []string {
	w.mu.Lock()
	current := w.scanLocked()

	var changed []string
	for p, mod := range current {
		last, ok := w.timestamps[p]
		if !ok || !mod.Equal(last) {
			changed = append(changed, p)
		}
	}
	for p := range w.timestamps {
		if _, ok := current[p]; !ok {
			changed = append(changed, p)
		}
	}
	w.timestamps = current
	callback := w.onChange
	initialized := w.initialized
	w.mu.Unlock()

	if len(changed) == 0 || !initialized {
		return nil
	}
	sort.Strings(changed)
	if callback != nil {
		callback(changed)
	}
	return changed
}

// scanLocked returns the modification time of every watched file.
func (w *Watcher) scanLocked() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, root := range w.paths {
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if p != root && ignored(p) {
					return filepath.SkipDir
				}
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			out[p] = info.ModTime()
			return nil
		})
	}
	return out
}

func ignored(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		for _, seg := range ignoredSegments {
			if part == seg {
				return true
			}
		}
	}
	return false
}
