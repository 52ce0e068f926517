// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches a single source file by watching its parent directory, so editors
// that save through a rename still trigger. Bursts of events are debounced:
// onChange fires once the file has been quiet for the debounce interval.
package fsnotify

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before onChange fires.
const DefaultDebounce = 100 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
	watching bool
	stopped  bool
	mu       sync.Mutex
}

// NewWatcher creates a new file watcher. A debounce <= 0 uses DefaultDebounce.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fw:       fw,
		debounce: debounce,
		done:     make(chan struct{}),
	}, nil
}

// Watch starts monitoring path. onChange is called with the absolute path
// after the file is written, created, renamed or removed. A Watcher watches
// one file; a second call is an error.
func (w *Watcher) Watch(path string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return errors.New("watcher stopped")
	}
	if w.watching {
		return errors.New("watcher already started")
	}
	if err := w.fw.Add(filepath.Dir(absPath)); err != nil {
		return err
	}
	w.watching = true

	go w.loop(absPath, onChange)
	return nil
}

func (w *Watcher) loop(absPath string, onChange func(string)) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				continue
			}
			// Restart the quiet period on every event in a burst.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange(absPath)

		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// Errors are dropped; fsnotify keeps delivering events

		case <-w.done:
			return
		}
	}
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}
