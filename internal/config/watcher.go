package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called with the paths that changed after the
// debounce window closes.
type ChangeCallback func(paths []string)

// Watcher reports debounced file changes under a directory. The
// preview server uses it to re-render components on edit.
type Watcher struct {
	dir      string
	debounce time.Duration
	fs       *fsnotify.Watcher

	mu        sync.Mutex
	callbacks []ChangeCallback

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher builds a watcher over dir with the given debounce window.
func NewWatcher(dir string, debounce time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("config: watching %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{dir: dir, debounce: debounce, fs: fs}, nil
}

// OnChange registers a callback for change batches.
func (w *Watcher) OnChange(fn ChangeCallback) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, fn)
	w.mu.Unlock()
}

// Start begins watching. Stop with Close.
func (w *Watcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[filepath.Clean(ev.Name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			pending = make(map[string]struct{})
			timerC = nil
			w.notify(paths)
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) notify(paths []string) {
	w.mu.Lock()
	callbacks := append([]ChangeCallback(nil), w.callbacks...)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn(paths)
	}
}

// Close stops the watcher and releases its file handles.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
