// Package requesttime pins one "now" per HTTP request, so the verdict log
// line, metrics and audit event of a request agree on its timestamp.
package requesttime

import (
	"net/http"
	"time"

	"namecheck/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
