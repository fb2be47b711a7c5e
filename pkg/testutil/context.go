package testutil

import (
	"net/http"

	"practiceops/pkg/domain"
	"practiceops/pkg/platform/middleware/auth"
	"practiceops/pkg/requestcontext"
)

// WithActor attaches an authenticated staff member to the request context,
// simulating what the auth middleware does after token validation. The
// capability set is derived from the role exactly as the middleware would.
func WithActor(req *http.Request, staffID domain.StaffID, role domain.Role) *http.Request {
	ctx := requestcontext.WithActorID(req.Context(), staffID)
	ctx = auth.WithCapabilities(ctx, auth.CapabilitiesFor(role))
	return req.WithContext(ctx)
}

// WithRequestID attaches a correlation ID to the request context so handler
// log assertions have a stable value to match.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
