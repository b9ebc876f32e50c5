package middleware

import (
	"net/http"

	"github.com/edutrack/edutrack/api/internal/audit"
	"github.com/edutrack/edutrack/common/httputil"
)

// ClientInfo records the caller's IP and user agent for audit events. A nil
// resolver records the direct peer address.
func ClientInfo(resolver *httputil.ClientIPResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := audit.ContextWithClient(r.Context(), resolver.ClientIP(r), r.UserAgent())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
