package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the bursts of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to the documents of a Dir. Events for other
// files in the watched directories are ignored.
type Watcher struct {
	dir      *Dir
	watcher  *fsnotify.Watcher
	onChange func(name string)
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher watches the user and common directories of dir, creating them
// if missing. onChange is called once per settled change with the document
// name.
func NewWatcher(dir *Dir, onChange func(name string), opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		dir:      dir,
		watcher:  fw,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("settings")

	for _, d := range []string{dir.UserDir(), dir.CommonDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			fw.Close()
			return nil, fmt.Errorf("create settings directory: %w", err)
		}
		if err := fw.Add(d); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", d, err)
		}
	}
	return w, nil
}

// WatchCell reloads cell whenever one of its documents changes on disk.
func WatchCell(cell *Cell, opts ...WatcherOption) (*Watcher, error) {
	if cell.Dir() == nil {
		return nil, fmt.Errorf("watch settings: cell has no directory")
	}
	var w *Watcher
	w, err := NewWatcher(cell.Dir(), func(name string) {
		if err := cell.Reload(); err != nil {
			w.logger.Warn("reload failed", zap.String("document", name), zap.Error(err))
		}
	}, opts...)
	return w, err
}

// Start runs the event loop until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

// Close stops the event loop and releases the watcher.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
	})
	return err
}

// Done is closed when the event loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case now := <-ticker.C:
			w.flush(now)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Base(event.Name)
	path, err := w.dir.Path(name)
	if err != nil || filepath.Clean(path) != filepath.Clean(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(now time.Time) {
	w.mu.Lock()
	var ready []string
	for name, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, name)
			delete(w.pending, name)
		}
	}
	w.mu.Unlock()

	for _, name := range ready {
		w.logger.Info("document changed", zap.String("document", name))
		if w.onChange != nil {
			w.onChange(name)
		}
	}
}
