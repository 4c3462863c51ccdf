// Package watcher reports changes to an offline graph payload so the viewer
// can reload it. It prefers fsnotify and falls back to stat polling on
// network filesystems or when DV_FORCE_POLL is set.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vanderheijden86/depview/pkg/debug"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// detectFilesystemTypeFunc is swapped in tests.
var detectFilesystemTypeFunc = DetectFilesystemType

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets how long the file must stay quiet before a
// change is reported.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithPollInterval sets the polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnChange registers a callback run after each debounced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError registers a callback for watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll skips fsnotify.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// Watcher watches one file.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	onChange     func()
	onError      func(error)
	forcePoll    bool

	mu        sync.RWMutex
	started   bool
	polling   bool
	fsType    FilesystemType
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	cancel    context.CancelFunc
	lastMtime time.Time
	lastSize  int64

	changed chan struct{}
	done    chan struct{}
}

// New returns a stopped watcher for path.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onChange:     func() {},
		onError:      func(error) {},
		changed:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	close(w.done)
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start begins watching. A missing file is fine; it is reported once it
// appears.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}

	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		w.lastMtime, w.lastSize = info.ModTime(), info.Size()
	case os.IsPermission(err):
		return ErrPermission
	default:
		w.lastMtime, w.lastSize = time.Time{}, 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.fsType = detectFilesystemTypeFunc(w.path)
	w.polling = w.forcePoll || envBool("DV_FORCE_POLL") || w.fsType.IsRemote()

	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			// The directory is watched so editors that replace the file are seen.
			err = fsw.Add(filepath.Dir(w.path))
			if err != nil {
				fsw.Close()
			}
		}
		if err != nil {
			debug.Log("watcher: fsnotify unavailable for %s, polling: %v", w.path, err)
			w.polling = true
		} else {
			w.fsw = fsw
			go w.watchEvents(ctx, fsw)
		}
	}
	if w.polling {
		go w.poll(ctx)
	}

	w.started = true
	debug.Log("watcher: watching %s (fs=%s polling=%v)", w.path, w.fsType, w.polling)
	return nil
}

// Stop ends watching and closes the Done channel. It is safe to call more
// than once. The Changed channel stays open; receivers should also select
// on Done.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.debouncer.Cancel()
	w.started = false
	close(w.done)
}

// Changed receives after each debounced change.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Done is closed when the watcher stops. It is already closed for a watcher
// that is not running.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.done
}

// Path returns the absolute watched path.
func (w *Watcher) Path() string {
	return w.path
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// IsPolling reports whether polling mode is active.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// FilesystemType returns the detected filesystem class of the watched path.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

func (w *Watcher) watchEvents(ctx context.Context, fsw *fsnotify.Watcher) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove):
				w.onError(ErrFileRemoved)
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create), ev.Has(fsnotify.Rename):
				w.debouncer.Trigger(w.notify)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		info, err := os.Stat(w.path)
		if err != nil {
			w.mu.Lock()
			existed := !w.lastMtime.IsZero()
			w.lastMtime, w.lastSize = time.Time{}, 0
			w.mu.Unlock()
			switch {
			case os.IsNotExist(err):
				if existed {
					w.onError(ErrFileRemoved)
				}
			case os.IsPermission(err):
				w.onError(ErrPermission)
			default:
				w.onError(err)
			}
			continue
		}

		w.mu.Lock()
		changed := !info.ModTime().Equal(w.lastMtime) || info.Size() != w.lastSize
		w.lastMtime, w.lastSize = info.ModTime(), info.Size()
		w.mu.Unlock()
		if changed {
			w.debouncer.Trigger(w.notify)
		}
	}
}

func (w *Watcher) notify() {
	if !w.IsStarted() {
		return
	}
	w.onChange()
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
