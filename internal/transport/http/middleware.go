package httptransport

import (
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"practiceops/pkg/requestcontext"
)

// RequestMetadata stamps every request with a correlation ID, the caller's
// network origin, and the arrival time. Services read these through the
// requestcontext accessors; the audit recorder stamps the origin into every
// entry.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		origin := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			origin = host
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithOrigin(ctx, origin)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
