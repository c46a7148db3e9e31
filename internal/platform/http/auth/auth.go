// Package auth provides bridge token authentication middleware for HTTP servers.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/api"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/appctx"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/logutil"
)

// AuthGateConfig configures the bridge token gate middleware.
type AuthGateConfig struct {
	// RequireAuth returns true if the given path requires the bridge token.
	// Constructed by the server at router setup time using IsAuthRequired().
	RequireAuth func(path string) bool

	// Log is the base logger for auth-related warnings.
	Log *slog.Logger

	// Token is the shared bridge token. An empty token disables the gate.
	Token string
}

// NewAuthGate returns a middleware that enforces the bridge token.
// If the token is empty or RequireAuth returns false for the request path,
// the request passes through without credential parsing.
func NewAuthGate(cfg AuthGateConfig) func(http.Handler) http.Handler {
	cfg.Log = logutil.NoopIfNil(cfg.Log)
	want := []byte(cfg.Token)

	return func(next http.Handler) http.Handler {
		if len(want) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.RequireAuth != nil && !cfg.RequireAuth(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			cred := extractCredential(r)
			if cred == nil {
				api.WriteUnauthorized(w, api.ReasonUnauthenticated, "bridge token required")
				return
			}

			if subtle.ConstantTimeCompare([]byte(cred.Token), want) != 1 {
				// Log auth source only - NEVER log the actual token
				appctx.GetLogger(r.Context()).Warn("bridge token rejected", "auth_source", cred.Source)
				api.WriteUnauthorized(w, api.ReasonInvalidToken, "invalid bridge token")
				return
			}

			reqLogger := appctx.GetLogger(r.Context()).With("auth_source", cred.Source)
			ctx := appctx.WithLogger(r.Context(), reqLogger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// credentialResult holds extracted auth credentials.
type credentialResult struct {
	Token  string
	Source string // for logging: "bearer", "basic:token:", "basic::token", "basic:id:token", "query"
}

// extractCredential extracts the bridge token from the request.
// Returns nil if no credential is present.
// Patterns supported:
//   - Bearer <token>
//   - Basic <base64(token:)>     -> WebDAV clients that only have a username field
//   - Basic <base64(:token)>     -> WebDAV clients that only have a password field
//   - Basic <base64(id:token)>   -> password is the token, id is ignored
//   - ?access_token=<token>      -> WebSocket upgrades only, browsers cannot set headers there
func extractCredential(r *http.Request) *credentialResult {
	auth := r.Header.Get("Authorization")

	if strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		if token != "" {
			return &credentialResult{Token: token, Source: "bearer"}
		}
		return nil
	}

	if strings.HasPrefix(auth, "Basic ") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
		if err != nil {
			return nil
		}
		username, password, ok := strings.Cut(string(decoded), ":")
		if !ok {
			return nil
		}
		switch {
		case password == "" && username != "":
			return &credentialResult{Token: username, Source: "basic:token:"}
		case username == "" && password != "":
			return &credentialResult{Token: password, Source: "basic::token"}
		case username != "" && password != "":
			return &credentialResult{Token: password, Source: "basic:id:token"}
		}
		return nil
	}

	if isWebSocketUpgrade(r) {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return &credentialResult{Token: token, Source: "query"}
		}
	}

	return nil
}

func isWebSocketUpgrade(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
