package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
)

// DefaultDebounce coalesces bursts of writes to the same file.
const DefaultDebounce = 500 * time.Millisecond

// Watcher emits object keys of files created or modified under a bucket directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	accept   func(key string) bool
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer

	// fired carries debounced keys to the loop goroutine, which alone writes the output channel.
	fired chan string
	done  chan struct{}
}

// NewWatcher creates a recursive watcher over bucket. accept filters keys (e.g. by extension).
func NewWatcher(src *Source, bucket string, accept func(key string) bool, logger *zap.Logger) (*Watcher, error) {
	dir, err := src.BucketDir(bucket)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		watcher:  w,
		dir:      dir,
		accept:   accept,
		debounce: DefaultDebounce,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
		fired:    make(chan string, 100),
		done:     make(chan struct{}),
	}, nil
}

// Watch starts monitoring and returns a channel of changed keys. The channel closes when ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	if err := w.addTree(w.dir); err != nil {
		return nil, err
	}

	keys := make(chan string, 100)

	go func() {
		defer func() {
			close(w.done)
			w.stopTimers()
			close(keys)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case key := <-w.fired:
				select {
				case keys <- key:
				case <-ctx.Done():
					return
				}
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handle(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("Watcher error", zap.Error(err))
			}
		}
	}()

	return keys, nil
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Watch new directory failed", zap.String("path", event.Name), zap.Error(err))
			}
		}
		return
	}
	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil {
		return
	}
	key := filepath.ToSlash(rel)
	if domain.IsFolderMarker(key) || (w.accept != nil && !w.accept(key)) {
		return
	}
	w.schedule(key)
}

func (w *Watcher) schedule(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[key]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[key] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, key)
		w.mu.Unlock()
		select {
		case w.fired <- key:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, t := range w.pending {
		t.Stop()
		delete(w.pending, key)
	}
}

// addTree registers dir and every subdirectory; fsnotify is not recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error { //nolint:wrapcheck // walk errors carry the path
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(p); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
		}
		return nil
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close() //nolint:wrapcheck // delegating
}
