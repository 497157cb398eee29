package fieldspec

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goliatone/go-inputfield/internal/debounce"
	"go.uber.org/zap"
)

// DefaultReloadDelay groups bursts of file events into one reload.
const DefaultReloadDelay = 200 * time.Millisecond

// ReloadFunc receives the store loaded after a change, or the load error.
// The previous store stays current when err is non-nil.
type ReloadFunc func(store *Store, err error)

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithReloadDelay sets the quiet period before a reload.
func WithReloadDelay(delay time.Duration) WatchOption {
	return func(w *Watcher) {
		if delay > 0 {
			w.delay = delay
		}
	}
}

// WithReloadScheduler replaces the timer source used to delay reloads.
func WithReloadScheduler(s debounce.Scheduler) WatchOption {
	return func(w *Watcher) {
		w.scheduler = s
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(logger *zap.Logger) WatchOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher keeps a Store in sync with a directory of definition files.
type Watcher struct {
	dir       string
	delay     time.Duration
	scheduler debounce.Scheduler
	logger    *zap.Logger
	onReload  ReloadFunc

	fsw       *fsnotify.Watcher
	debounce  *debounce.Debouncer
	closeOnce sync.Once
	closeErr  error

	// reloading serialises reloads with Close.
	reloading sync.Mutex

	mu     sync.RWMutex
	store  *Store
	closed bool
}

// NewWatcher loads dir and starts watching it and its subdirectories. The
// initial load must succeed.
func NewWatcher(dir string, onReload ReloadFunc, options ...WatchOption) (*Watcher, error) {
	w := &Watcher{
		dir:      dir,
		delay:    DefaultReloadDelay,
		logger:   zap.NewNop(),
		onReload: onReload,
	}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}

	store, err := LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	w.store = store

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fieldspec: watch %s: %w", dir, err)
	}
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("fieldspec: watch %s: %w", dir, err)
	}
	w.fsw = fsw
	w.debounce = debounce.New(w.delay, w.scheduler)
	return w, nil
}

// Store returns the most recently loaded store.
func (w *Watcher) Store() *Store {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.store
}

// Close stops watching. It waits for a reload in progress, after which no
// further reloads run. It must not be called from the ReloadFunc. Close is
// idempotent.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		w.debounce.Cancel()

		w.reloading.Lock()
		w.closeErr = w.fsw.Close()
		w.reloading.Unlock()
		w.logger.Debug("watcher closed", zap.String("dir", w.dir))
	})
	return w.closeErr
}

func (w *Watcher) isClosed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

// Run processes file events until ctx is done or the watcher is closed,
// then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.String("dir", w.dir), zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Warn("watch directory", zap.String("path", event.Name), zap.Error(err))
			}
			return
		}
	}
	if !isSpecFile(event.Name) || (event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write)) {
		return
	}
	w.logger.Debug("definition changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
	w.debounce.Debounce(w.reload)
}

func (w *Watcher) reload() {
	w.reloading.Lock()
	defer w.reloading.Unlock()
	if w.isClosed() {
		return
	}

	store, err := LoadFS(os.DirFS(w.dir))
	if err != nil {
		w.logger.Warn("reload failed", zap.String("dir", w.dir), zap.Error(err))
	} else {
		w.mu.Lock()
		w.store = store
		w.mu.Unlock()
		w.logger.Info("definitions reloaded", zap.String("dir", w.dir), zap.Strings("forms", store.Names()))
	}
	if w.onReload != nil {
		w.onReload(store, err)
	}
}
