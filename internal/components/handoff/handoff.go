// Package handoff delivers ingested paths to the host UI.
//
// A Bridge has two outputs. The pull slot holds the result of the launch
// share and is read-and-cleared by TakeSharedFile. The push stream forwards
// results of shares received while the UI is active to at most one listener.
package handoff

import (
	"log/slog"
	"sync"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/ingest"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/logutil"
)

// Channel and method names used by the host UI.
const (
	MethodChannel = "app.channel.intent/init"
	EventChannel  = "app.channel.intent/new"

	MethodGetSharedFile = "getSharedFile"
)

// Origin says how a share event reached the process.
type Origin int

const (
	// OriginLaunch is the share that started the process. Its result fills the pull slot.
	OriginLaunch Origin = iota
	// OriginActive is a share received while running. Its result is pushed.
	OriginActive
)

func (o Origin) String() string {
	switch o {
	case OriginLaunch:
		return "launch"
	case OriginActive:
		return "active"
	default:
		return "unknown"
	}
}

// Sink receives pushed paths. Send must not block; it reports whether the
// path was accepted. Close is called when the sink is replaced or cancelled.
type Sink interface {
	Send(path string) bool
	Close()
}

// Bridge is safe for concurrent use.
type Bridge struct {
	mu     sync.Mutex
	slot   string
	filled bool
	sink   Sink
	logger *slog.Logger
}

// NewBridge creates an empty bridge.
func NewBridge(logger *slog.Logger) *Bridge {
	logger = logutil.NoopIfNil(logger)
	return &Bridge{logger: logger}
}

// Publish routes an ingest result. A failed launch share clears the slot so
// the next pull answers with nothing. A failed active share emits nothing.
func (b *Bridge) Publish(origin Origin, res ingest.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch origin {
	case OriginLaunch:
		if res.OK() && res.Path != "" {
			b.slot, b.filled = res.Path, true
		} else {
			b.slot, b.filled = "", false
		}
	case OriginActive:
		if !res.OK() || res.Path == "" {
			return
		}
		if b.sink == nil {
			b.logger.Debug("no listener attached, dropping pushed path", "path", res.Path)
			return
		}
		if !b.sink.Send(res.Path) {
			b.logger.Warn("listener did not accept pushed path", "path", res.Path)
		}
	}
}

// TakeSharedFile returns the launch result once and clears it.
func (b *Bridge) TakeSharedFile() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path, ok := b.slot, b.filled
	b.slot, b.filled = "", false
	return path, ok
}

// Listen attaches sink as the push listener, closing any previous one.
// The returned cancel detaches and closes sink if it is still attached.
func (b *Bridge) Listen(sink Sink) (cancel func()) {
	b.mu.Lock()
	prev := b.sink
	b.sink = sink
	b.mu.Unlock()

	if prev != nil {
		b.logger.Debug("replacing push listener")
		prev.Close()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			attached := b.sink == sink
			if attached {
				b.sink = nil
			}
			b.mu.Unlock()
			if attached {
				sink.Close()
			}
		})
	}
}

// HasListener reports whether a push listener is attached.
func (b *Bridge) HasListener() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sink != nil
}

// Close detaches and closes the current listener.
func (b *Bridge) Close() error {
	b.mu.Lock()
	sink := b.sink
	b.sink = nil
	b.mu.Unlock()

	if sink != nil {
		sink.Close()
	}
	return nil
}
