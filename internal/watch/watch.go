// Package watch monitors definition and overlay directories and coalesces
// filesystem churn into reload events. Editors save in bursts, so raw
// notifications are debounced before anything downstream re-registers a
// catalog or re-runs an apply.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Logger is the subset of log output the watcher needs.
type Logger interface {
	Printf(format string, v ...any)
}

// Event is a settled batch of file changes under the watched directories.
type Event struct {
	Paths []string
	Time  time.Time
}

// Watcher owns an fsnotify watcher over a set of directories and publishes
// debounced reload events on Events().
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	dirs     []string
	logger   Logger
	debounce time.Duration
	pending  map[string]time.Time
	events   chan Event
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// Option adjusts a Watcher before Start.
type Option func(*Watcher)

// WithLogger routes watcher diagnostics to the given logger.
func WithLogger(logger Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce overrides the settle window for bursty saves.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New prepares a watcher over the given directories. Directories that do not
// exist yet are skipped at Start with a log line rather than an error, since
// overlay dirs are often created after the watcher.
func New(dirs []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		dirs:     append([]string(nil), dirs...),
		logger:   nopLogger{},
		debounce: 500 * time.Millisecond,
		pending:  make(map[string]time.Time),
		events:   make(chan Event, 16),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Events returns the channel of settled change batches.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching. It is non-blocking and safe to call once.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		trimmed := strings.TrimSpace(dir)
		if trimmed == "" {
			continue
		}
		if err := w.fsw.Add(trimmed); err != nil {
			w.logger.Printf("watch: skipping %s: %v", trimmed, err)
		}
	}

	go w.run(ctx)
	return nil
}

// Stop halts the watcher and waits for the loop to exit. The events channel
// is closed afterwards.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.fsw.Close(); err != nil {
		w.logger.Printf("watch: close: %v", err)
	}
	close(w.events)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.record(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watch: %v", err)
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) record(event fsnotify.Event) {
	if !watchableFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.mu.Lock()
	w.pending[filepath.Clean(event.Name)] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush() {
	now := time.Now()

	w.mu.Lock()
	var settled []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}
	sort.Strings(settled)

	select {
	case w.events <- Event{Paths: settled, Time: now}:
	default:
		w.logger.Printf("watch: dropping reload event for %d paths, consumer is behind", len(settled))
	}
}

// watchableFile reports whether a path holds definition or overlay source.
func watchableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".jsonc", ".go":
		return true
	}
	return false
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
