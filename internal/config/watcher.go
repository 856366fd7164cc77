package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Holder when its file changes on disk.
type Watcher struct {
	// fsWatcher is the underlying filesystem watcher
	fsWatcher *fsnotify.Watcher

	holder *Holder
	logger *slog.Logger

	// debounceDelay coalesces editor write bursts into one reload
	debounceDelay time.Duration

	// file is the absolute path being watched
	file string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending *time.Timer
}

// NewWatcher starts watching the holder's file. The parent directory is
// watched so that editors replacing the file by rename are noticed.
func NewWatcher(h *Holder, logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	if h.Path() == "" {
		return nil, fmt.Errorf("holder has no file to watch")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce == 0 {
		debounce = 200 * time.Millisecond
	}

	file, err := filepath.Abs(h.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", h.Path(), err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(file)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(file), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fsWatcher:     fsWatcher,
		holder:        h,
		logger:        logger,
		debounceDelay: debounce,
		file:          file,
		ctx:           ctx,
		cancel:        cancel,
	}

	w.wg.Add(1)
	go w.processEvents()

	logger.Debug("watching config file", "path", file)
	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// schedule (re)starts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounceDelay, func() {
		if w.ctx.Err() != nil {
			return
		}
		_ = w.holder.Reload()
	})
}
