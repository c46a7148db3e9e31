// Package dropfolder turns files placed in a watched directory into share
// events. A file is submitted once it has been quiet for the debounce period.
package dropfolder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentref"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/handoff"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/appctx"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/logutil"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 500 * time.Millisecond

var ErrStopped = errors.New("drop folder watcher stopped")

// Submitter is the part of *handoff.Intake used by the watcher.
type Submitter interface {
	Handle(ctx context.Context, origin handoff.Origin, ref *contentref.Reference) handoff.Event
}

// Watcher watches one directory, non-recursively.
type Watcher struct {
	dir       string
	debounce  time.Duration
	submitter Submitter
	logger    *slog.Logger
	fsw       *fsnotify.Watcher

	mu      sync.Mutex
	timers  map[string]*time.Timer
	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc

	inflight sync.WaitGroup
	loopDone chan struct{}
}

// New creates a watcher for dir, creating the directory if needed.
func New(dir string, debounce time.Duration, submitter Submitter, logger *slog.Logger) (*Watcher, error) {
	if submitter == nil {
		return nil, errors.New("drop folder: submitter is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("drop folder: resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("drop folder: create %s: %w", abs, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch drop folder %s: %w", abs, err)
	}

	return &Watcher{
		dir:       abs,
		debounce:  debounce,
		submitter: submitter,
		logger:    logutil.NoopIfNil(logger).With("component", "dropfolder", "dir", abs),
		fsw:       fsw,
		timers:    make(map[string]*time.Timer),
		loopDone:  make(chan struct{}),
	}, nil
}

// Dir returns the absolute watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Start begins watching. Share events run with a context derived from ctx.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrStopped
	}
	if w.started {
		return nil
	}
	w.started = true
	w.ctx, w.cancel = context.WithCancel(ctx)

	go w.watchLoop()
	w.logger.Info("drop folder watcher started", "debounce", w.debounce.String())
	return nil
}

// Stop stops watching, drops pending files and waits for in-flight share
// events to finish. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
	started := w.started
	w.mu.Unlock()

	err := w.fsw.Close()
	if started {
		<-w.loopDone
	}
	w.inflight.Wait()
	if w.cancel != nil {
		w.cancel()
	}
	w.logger.Info("drop folder watcher stopped")
	return err
}

// watchLoop monitors file system events
func (w *Watcher) watchLoop() {
	defer close(w.loopDone)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("drop folder watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if isHidden(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancelPending(event.Name)
	}
}

// schedule debounces rapid writes to the same file.
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(w.debounce, func() { w.fire(name) })
}

func (w *Watcher) cancelPending(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[name]; ok {
		t.Stop()
		delete(w.timers, name)
	}
}

// fire submits name as an active share event if it is still a regular file.
func (w *Watcher) fire(name string) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	delete(w.timers, name)
	w.inflight.Add(1)
	ctx := w.ctx
	w.mu.Unlock()
	defer w.inflight.Done()

	info, err := os.Stat(name)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	ref, err := contentref.Parse(fileURI(name))
	if err != nil {
		w.logger.Warn("drop folder file has no usable reference", "file", name, "error", err)
		return
	}

	eventID := appctx.NewEventID()
	ctx = appctx.WithEventID(ctx, eventID)
	ctx = appctx.WithLogger(ctx, w.logger.With("event_id", eventID))

	ev := w.submitter.Handle(ctx, handoff.OriginActive, ref)
	if ev.Result.OK() {
		w.logger.Info("drop folder file ingested", "file", name, "path", ev.Result.Path, "bytes", ev.Result.Bytes)
	}
}

// fileURI returns the file:// reference for an absolute path.
func fileURI(p string) string {
	u := url.URL{Scheme: contentref.SchemeFile, Path: filepath.ToSlash(p)}
	return u.String()
}

func isHidden(name string) bool {
	return strings.HasPrefix(filepath.Base(name), ".")
}
