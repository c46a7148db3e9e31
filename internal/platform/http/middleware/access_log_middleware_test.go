package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/MahdiBaghbani/shareintake-go/internal/platform/appctx"
)

// accessLogRecorder captures access log records with all their attributes.
type accessLogRecorder struct {
	mu      sync.Mutex
	records []accessLogRecord
	level   slog.Level
}

type accessLogRecord struct {
	message string
	level   slog.Level
	attrs   map[string]any
}

func newAccessLogRecorder(level slog.Level) *accessLogRecorder {
	return &accessLogRecorder{
		level: level,
	}
}

func (r *accessLogRecorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level
}

func (r *accessLogRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	attrs := make(map[string]any)
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	r.records = append(r.records, accessLogRecord{
		message: rec.Message,
		level:   rec.Level,
		attrs:   attrs,
	})
	return nil
}

func (r *accessLogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &accessLogRecorderWithAttrs{
		parent:      r,
		parentAttrs: attrs,
	}
}

func (r *accessLogRecorder) WithGroup(name string) slog.Handler {
	return r
}

func (r *accessLogRecorder) getRecords() []accessLogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]accessLogRecord, len(r.records))
	copy(result, r.records)
	return result
}

// accessLogRecorderWithAttrs captures logs with pre-attached attrs.
type accessLogRecorderWithAttrs struct {
	parent      *accessLogRecorder
	parentAttrs []slog.Attr
}

func (r *accessLogRecorderWithAttrs) Enabled(ctx context.Context, level slog.Level) bool {
	return r.parent.Enabled(ctx, level)
}

func (r *accessLogRecorderWithAttrs) Handle(_ context.Context, rec slog.Record) error {
	r.parent.mu.Lock()
	defer r.parent.mu.Unlock()

	attrs := make(map[string]any)
	// Add parent attrs first
	for _, a := range r.parentAttrs {
		attrs[a.Key] = a.Value.Any()
	}
	// Add record attrs
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	r.parent.records = append(r.parent.records, accessLogRecord{
		message: rec.Message,
		level:   rec.Level,
		attrs:   attrs,
	})
	return nil
}

func (r *accessLogRecorderWithAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(r.parentAttrs)+len(attrs))
	copy(newAttrs, r.parentAttrs)
	copy(newAttrs[len(r.parentAttrs):], attrs)
	return &accessLogRecorderWithAttrs{
		parent:      r.parent,
		parentAttrs: newAttrs,
	}
}

func (r *accessLogRecorderWithAttrs) WithGroup(name string) slog.Handler {
	return r
}

func findAccessLog(t *testing.T, recorder *accessLogRecorder) accessLogRecord {
	t.Helper()
	for _, rec := range recorder.getRecords() {
		if rec.message == "request" {
			return rec
		}
	}
	t.Fatal("expected 'request' access log entry")
	return accessLogRecord{}
}

func newChain(logger *slog.Logger, withRequestLogger bool) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if withRequestLogger {
		r.Use(RequestLoggerMiddleware(logger))
	}
	r.Use(AccessLogMiddleware(logger))
	r.Use(chimw.Recoverer)
	return r
}

var requiredFields = []string{"request_id", "method", "path", "client_ip", "status", "bytes", "duration_ms"}

func TestAccessLogMiddleware_HasRequiredFields(t *testing.T) {
	recorder := newAccessLogRecorder(slog.LevelInfo)
	r := newChain(slog.New(recorder), true)
	r.Post("/api/shares", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	})

	req := httptest.NewRequest("POST", "/api/shares?debug=1", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	r.ServeHTTP(httptest.NewRecorder(), req)

	accessLog := findAccessLog(t, recorder)
	for _, field := range requiredFields {
		if _, ok := accessLog.attrs[field]; !ok {
			t.Errorf("missing required access log field %q", field)
		}
	}

	if accessLog.attrs["method"] != "POST" {
		t.Errorf("expected method 'POST', got %v", accessLog.attrs["method"])
	}
	if accessLog.attrs["path"] != "/api/shares" {
		t.Errorf("expected path without query, got %v", accessLog.attrs["path"])
	}
	if accessLog.attrs["client_ip"] != "127.0.0.1" {
		t.Errorf("expected client_ip 127.0.0.1, got %v", accessLog.attrs["client_ip"])
	}
	// Status comes as int64 from slog Value
	if status, ok := accessLog.attrs["status"].(int64); !ok || status != 200 {
		t.Errorf("expected status 200, got %v (type %T)", accessLog.attrs["status"], accessLog.attrs["status"])
	}
	if accessLog.level != slog.LevelInfo {
		t.Errorf("expected info level, got %v", accessLog.level)
	}
}

func TestAccessLogMiddleware_FallbackWhenContextLoggerMissing(t *testing.T) {
	recorder := newAccessLogRecorder(slog.LevelInfo)
	r := newChain(slog.New(recorder), false)
	r.Post("/fallback-test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/fallback-test", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	r.ServeHTTP(httptest.NewRecorder(), req)

	accessLog := findAccessLog(t, recorder)
	for _, field := range requiredFields {
		if _, ok := accessLog.attrs[field]; !ok {
			t.Errorf("fallback: missing required access log field %q", field)
		}
	}
	if accessLog.attrs["path"] != "/fallback-test" {
		t.Errorf("fallback: expected path '/fallback-test', got %v", accessLog.attrs["path"])
	}
}

func TestAccessLogMiddleware_PanicProducesStatus500(t *testing.T) {
	recorder := newAccessLogRecorder(slog.LevelInfo)
	r := newChain(slog.New(recorder), true)
	r.Get("/panic-test", func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	req := httptest.NewRequest("GET", "/panic-test", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected HTTP 500, got %d", rr.Code)
	}

	accessLog := findAccessLog(t, recorder)
	if status, ok := accessLog.attrs["status"].(int64); !ok || status != 500 {
		t.Errorf("expected status 500 for panic, got %v", accessLog.attrs["status"])
	}
	if accessLog.level != slog.LevelError {
		t.Errorf("expected error level for 500, got %v", accessLog.level)
	}
}

func TestAccessLogMiddleware_ClientErrorsAtWarn(t *testing.T) {
	recorder := newAccessLogRecorder(slog.LevelInfo)
	r := newChain(slog.New(recorder), true)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))

	accessLog := findAccessLog(t, recorder)
	if accessLog.level != slog.LevelWarn {
		t.Errorf("expected warn level for 404, got %v", accessLog.level)
	}
}

func TestRequestLoggerMiddleware_ContextLogger(t *testing.T) {
	recorder := newAccessLogRecorder(slog.LevelInfo)
	r := newChain(slog.New(recorder), true)
	r.Get("/ctx", func(w http.ResponseWriter, r *http.Request) {
		logger, ok := appctx.LoggerFromContext(r.Context())
		if !ok {
			t.Error("expected request-scoped logger in context")
			return
		}
		logger.Info("handler line")
	})

	req := httptest.NewRequest("GET", "/ctx", nil)
	req.RemoteAddr = "[::1]:9999"
	r.ServeHTTP(httptest.NewRecorder(), req)

	for _, rec := range recorder.getRecords() {
		if rec.message != "handler line" {
			continue
		}
		if rec.attrs["client_ip"] != "::1" {
			t.Errorf("client_ip = %v", rec.attrs["client_ip"])
		}
		if id, _ := rec.attrs["request_id"].(string); id == "" {
			t.Error("handler log line lacks request_id")
		}
		return
	}
	t.Fatal("handler log line not recorded")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"127.0.0.1:8080", "127.0.0.1"},
		{"[::1]:443", "::1"},
		{"no-port", "no-port"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = tt.remote
		if got := ClientIP(req); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func TestLevelForStatus(t *testing.T) {
	if levelForStatus(204) != slog.LevelInfo || levelForStatus(400) != slog.LevelWarn || levelForStatus(503) != slog.LevelError {
		t.Error("unexpected level mapping")
	}
}
