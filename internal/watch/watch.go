// Package watch reports modifications of a fixed set of input files.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the bursts of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Change is one settled modification of a watched file.
type Change struct {
	Path    string
	Removed bool
}

// Watcher monitors files through their parent directories, so files
// replaced by rename are still followed.
type Watcher struct {
	Changes <-chan Change

	changes  chan Change
	done     chan struct{}
	files    map[string]bool
	dirs     map[string]bool
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// New creates a watcher over paths. A zero debounce selects
// DefaultDebounce.
func New(paths []string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		done:     make(chan struct{}),
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		debounce: debounce,
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
		w.files[abs] = true
		w.dirs[filepath.Dir(abs)] = true
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ch := make(chan Change, 16)
	w.Changes, w.changes, w.watcher = ch, ch, fw
	return w, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	for dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[filepath.Clean(event.Name)] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= w.debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) emit(file string) {
	_, err := os.Stat(file)
	w.changes <- Change{Path: file, Removed: os.IsNotExist(err)}
}
