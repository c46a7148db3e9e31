package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	componentsapi "github.com/MahdiBaghbani/shareintake-go/internal/components/api"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/api/intent"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex/memory"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/handoff"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/ingest"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/config"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/deps"
)

var testLog = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// setupTestDeps creates minimal SharedDeps for testing.
func setupTestDeps(t *testing.T) *deps.Deps {
	t.Helper()
	deps.ResetDeps()

	cfg := config.DevConfig()
	cfg.Storage.PrivateRoot = t.TempDir()
	cfg.Bridge.PushBuffer = 4

	idx := memory.New()
	ingestor := ingest.New(idx, nil, nil, testLog)
	bridge := handoff.NewBridge(testLog)
	d := &deps.Deps{
		Config:      cfg,
		Index:       idx,
		IndexDriver: "memory",
		Ingestor:    ingestor,
		Bridge:      bridge,
		Intake:      handoff.NewIntake(ingestor, bridge, cfg.Storage.PrivateRoot, testLog),
	}
	deps.SetDeps(d)
	return d
}

func TestNew_FailsWithoutSharedDeps(t *testing.T) {
	deps.ResetDeps()

	_, err := New(map[string]any{}, testLog)
	if err == nil {
		t.Error("expected error when SharedDeps not initialized")
	}
}

func TestNew_FailsWithoutIntake(t *testing.T) {
	deps.ResetDeps()
	deps.SetDeps(&deps.Deps{Config: config.DevConfig()})

	if _, err := New(nil, testLog); err == nil {
		t.Error("expected error when intake is missing")
	}
}

func TestNew_DecodesSettings(t *testing.T) {
	setupTestDeps(t)

	svc, err := New(map[string]any{
		"max_body_bytes":  int64(2048),
		"pong_wait":       "30s",
		"allowed_origins": "app://ui,app://debug",
	}, testLog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := svc.(*Service)
	if s.conf.MaxBodyBytes != 2048 {
		t.Errorf("MaxBodyBytes = %d, want 2048", s.conf.MaxBodyBytes)
	}
	if s.conf.PongWait.String() != "30s" {
		t.Errorf("PongWait = %v, want 30s", s.conf.PongWait)
	}
	if len(s.conf.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", s.conf.AllowedOrigins)
	}
	if s.conf.PushBuffer != 4 {
		t.Errorf("PushBuffer = %d, want value from [bridge]", s.conf.PushBuffer)
	}
}

func TestNew_DefaultsWhenUnconfigured(t *testing.T) {
	setupTestDeps(t)

	svc, err := New(nil, testLog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := svc.(*Service)
	if s.conf.MaxBodyBytes != intent.DefaultMaxBodyBytes {
		t.Errorf("MaxBodyBytes = %d, want default", s.conf.MaxBodyBytes)
	}
}

func TestService_Metadata(t *testing.T) {
	setupTestDeps(t)

	svc, err := New(nil, testLog)
	if err != nil {
		t.Fatal(err)
	}
	if svc.Prefix() != "api" {
		t.Errorf("Prefix = %q", svc.Prefix())
	}
	unprotected := svc.Unprotected()
	if len(unprotected) != 1 || unprotected[0] != "/healthz" {
		t.Errorf("Unprotected = %v", unprotected)
	}
}

func TestService_HealthAndShare(t *testing.T) {
	d := setupTestDeps(t)

	svc, err := New(nil, testLog)
	if err != nil {
		t.Fatal(err)
	}
	mux := chi.NewRouter()
	mux.Mount("/api", svc.Handler())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rr.Code)
	}
	var health componentsapi.HealthResponse
	json.NewDecoder(rr.Body).Decode(&health)
	if health.Status != "ok" || health.IndexDriver != "memory" || health.Listening {
		t.Errorf("unexpected health %+v", health)
	}

	src := t.TempDir() + "/note.txt"
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/shares",
		strings.NewReader(`{"uri":"file://`+src+`","launch":true}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("share status = %d: %s", rr.Code, rr.Body.String())
	}

	path, ok := d.Bridge.TakeSharedFile()
	if !ok || !strings.HasPrefix(path, d.Config.Storage.TransRoot()) {
		t.Errorf("pull slot = %q, %v", path, ok)
	}
}

func TestService_CloseDetachesListener(t *testing.T) {
	d := setupTestDeps(t)

	svc, err := New(nil, testLog)
	if err != nil {
		t.Fatal(err)
	}

	sink := handoff.NewChanSink(1)
	d.Bridge.Listen(sink)

	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if d.Bridge.HasListener() {
		t.Error("listener still attached after Close")
	}
	select {
	case <-sink.Done():
	default:
		t.Error("sink was not closed")
	}
}
