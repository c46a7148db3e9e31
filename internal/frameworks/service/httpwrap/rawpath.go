// Package httpwrap provides HTTP handler wrappers for service layer use.
package httpwrap

import "net/http"

// ClearRawPath clears r.URL.RawPath before routing so chi matches on the
// decoded path.
func ClearRawPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.RawPath = ""
		next.ServeHTTP(w, r)
	})
}

// LimitBody caps request bodies at n bytes. n <= 0 disables the limit.
func LimitBody(n int64, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, n)
		}
		next.ServeHTTP(w, r)
	})
}
