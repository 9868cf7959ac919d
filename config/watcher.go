package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a config file for changes and re-runs a Feeder whenever
// it is modified, publishing the new Values to any registered listener.
// Only free-form config values are hot-reloaded this way; module and
// plugin wiring is immutable once the application has booted.
type Watcher struct {
	feeder  Feeder
	watcher *fsnotify.Watcher
	mu      sync.RWMutex
	current Values
	onChange []func(Values)
	done     chan struct{}
}

// NewWatcher starts watching path (via feeder, which must read from the
// same file) and performs an initial load.
func NewWatcher(path string, feeder Feeder) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	initial, err := feeder.Feed()
	if err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		feeder:  feeder,
		watcher: fsw,
		current: initial,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			v, err := w.feeder.Feed()
			if err != nil {
				continue
			}
			w.mu.Lock()
			w.current = v
			listeners := append([]func(Values){}, w.onChange...)
			w.mu.Unlock()
			for _, l := range listeners {
				l(v)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Current returns the most recently loaded Values.
func (w *Watcher) Current() Values {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked with the new Values every time the
// watched file changes.
func (w *Watcher) OnChange(fn func(Values)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Close stops watching and releases the underlying inotify/kqueue handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
