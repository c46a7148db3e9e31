// Package middleware provides always-on transport middleware for HTTP servers.
package middleware

import (
	"log/slog"
	"net"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/MahdiBaghbani/shareintake-go/internal/platform/appctx"
)

// ClientIP returns the host part of r.RemoteAddr. The bridge listens on
// loopback and sits behind no proxy, so forwarding headers are ignored.
func ClientIP(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestFields returns the base fields shared by the request logger and the access log.
func requestFields(r *http.Request) []any {
	return []any{
		"request_id", chimw.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path, // path only, no query string
		"client_ip", ClientIP(r),
	}
}

// RequestLoggerMiddleware attaches a request-scoped logger to the request context.
//
// It must run after chi's middleware.RequestID so that the request id is set.
func RequestLoggerMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := base.With(requestFields(r)...)
			ctx := appctx.WithLogger(r.Context(), reqLogger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
