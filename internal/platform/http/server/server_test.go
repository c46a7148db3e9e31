package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/api"
	"github.com/MahdiBaghbani/shareintake-go/internal/frameworks/service"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/config"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/deps"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// trackingService is a test service that records when Close() is called.
type trackingService struct {
	name        string
	prefix      string
	unprotected []string
	closeOrder  *[]string
	closeErr    error
}

func (t *trackingService) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/private", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(t.name))
	})
	return r
}
func (t *trackingService) Prefix() string        { return t.prefix }
func (t *trackingService) Unprotected() []string { return t.unprotected }
func (t *trackingService) Close() error {
	if t.closeOrder != nil {
		*t.closeOrder = append(*t.closeOrder, t.name)
	}
	return t.closeErr
}

// Verify trackingService implements service.Service
var _ service.Service = (*trackingService)(nil)

// setupTestSharedDeps sets up SharedDeps for testing and returns a cleanup function.
func setupTestSharedDeps(t *testing.T) func() {
	t.Helper()
	deps.ResetDeps()
	deps.SetDeps(&deps.Deps{Config: config.DevConfig()})
	return func() {
		deps.ResetDeps()
	}
}

func TestNew_FailsWithNilSharedDeps(t *testing.T) {
	deps.ResetDeps()
	defer deps.ResetDeps()

	_, err := New(config.DevConfig(), testLogger, nil)
	if !errors.Is(err, ErrMissingSharedDeps) {
		t.Errorf("expected ErrMissingSharedDeps, got: %v", err)
	}
}

func TestNew_SucceedsWithSharedDeps(t *testing.T) {
	cleanup := setupTestSharedDeps(t)
	defer cleanup()

	srv, err := New(config.DevConfig(), testLogger, nil) // nil service map acceptable for tests
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if srv == nil {
		t.Fatal("expected non-nil server")
	}
}

func TestShutdown_ClosesServicesInReverseOrder(t *testing.T) {
	cleanup := setupTestSharedDeps(t)
	defer cleanup()

	var closeOrder []string
	srv, err := New(config.DevConfig(), testLogger, map[string]service.Service{
		"zeta":   &trackingService{name: "zeta", prefix: "zeta", closeOrder: &closeOrder},
		"webdav": &trackingService{name: "webdav", prefix: "webdav", closeOrder: &closeOrder, closeErr: errors.New("boom")},
		"api":    &trackingService{name: "api", prefix: "api", closeOrder: &closeOrder},
		"absent": nil,
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	// Mounted: api, webdav (core order), then zeta. A close error does not stop the rest.
	expected := []string{"zeta", "webdav", "api"}
	if len(closeOrder) != len(expected) {
		t.Fatalf("expected %d services closed, got %d: %v", len(expected), len(closeOrder), closeOrder)
	}
	for i, name := range expected {
		if closeOrder[i] != name {
			t.Errorf("close order[%d] = %q, want %q", i, closeOrder[i], name)
		}
	}
}

func TestIsAuthRequired(t *testing.T) {
	mounted := []service.Service{
		&trackingService{prefix: "api", unprotected: []string{"/healthz"}},
		&trackingService{prefix: "webdav"},
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/api/healthz", false},
		{"/api/healthz/", false},
		{"/api/healthzx", true},
		{"/api/shares", true},
		{"/api", true},
		{"/webdav/trans/1/a.txt", true},
		{"/webdavx", true},
		{"/unknown", true},
	}
	for _, tt := range tests {
		if got := IsAuthRequired(tt.path, mounted); got != tt.want {
			t.Errorf("IsAuthRequired(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPathMatchesPrefix(t *testing.T) {
	if !pathMatchesPrefix("/api", "/api") || !pathMatchesPrefix("/api/x", "/api") {
		t.Error("expected exact and sub-path matches")
	}
	if pathMatchesPrefix("/apix", "/api") || pathMatchesPrefix("/ap", "/api") {
		t.Error("unexpected match")
	}
}

func TestMountOrder(t *testing.T) {
	got := mountOrder(map[string]service.Service{
		"b": nil, "webdav": nil, "a": nil, "api": nil,
	})
	want := []string{"api", "webdav", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("mountOrder = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mountOrder[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRouter_TokenGate(t *testing.T) {
	cleanup := setupTestSharedDeps(t)
	defer cleanup()

	cfg := config.DevConfig()
	cfg.Server.BridgeToken = "s3cret"
	srv, err := New(cfg, testLogger, map[string]service.Service{
		"api": &trackingService{name: "api", prefix: "api", unprotected: []string{"/healthz"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	h := srv.Handler()

	do := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := do("/api/healthz", ""); rr.Code != http.StatusOK {
		t.Errorf("healthz without token = %d, want 200", rr.Code)
	}
	if rr := do("/api/private", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("private without token = %d, want 401", rr.Code)
	}
	if rr := do("/api/private", "s3cret"); rr.Code != http.StatusOK || rr.Body.String() != "api" {
		t.Errorf("private with token = %d %q", rr.Code, rr.Body.String())
	}
}

func TestRouter_NotFoundIsJSON(t *testing.T) {
	cleanup := setupTestSharedDeps(t)
	defer cleanup()

	srv, err := New(config.DevConfig(), testLogger, nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var envelope api.ErrorEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Error.ReasonCode != api.ReasonNotFound {
		t.Errorf("reason = %q", envelope.Error.ReasonCode)
	}
}

func TestStartAndShutdown(t *testing.T) {
	cleanup := setupTestSharedDeps(t)
	defer cleanup()

	cfg := config.DevConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv, err := New(cfg, testLogger, map[string]service.Service{
		"api": &trackingService{name: "api", prefix: "api", unprotected: []string{"/healthz"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not bind")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/api/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		t.Errorf("Start returned %v, want http.ErrServerClosed", err)
	}
}
