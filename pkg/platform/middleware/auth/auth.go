// Package auth authenticates requests and evaluates the capability check at
// the boundary. Identity and role assignment live in the external profile
// subsystem; this middleware only verifies the token it minted and derives
// the capability set from the role claim.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"practiceops/pkg/domain"
	"practiceops/pkg/platform/httputil"
	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/requestcontext"
)

type capabilitiesKey struct{}

type roleKey struct{}

// Claims is the token payload the profile subsystem issues: subject is the
// staff ID, role is the practice role at issue time.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken validates an HS256 bearer token and returns its claims.
func ParseToken(tokenString string, signingKey []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token invalid")
	}
	return claims, nil
}

// RequireAuth validates the bearer token, resolves the actor and capability
// set, and stores both in the request context.
func RequireAuth(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := ParseToken(token, signingKey)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			actorID, err := domain.ParseStaffID(claims.Subject)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a staff id"))
				return
			}

			role := domain.Role(claims.Role)
			ctx := requestcontext.WithActorID(r.Context(), actorID)
			ctx = context.WithValue(ctx, roleKey{}, role)
			ctx = context.WithValue(ctx, capabilitiesKey{}, CapabilitiesFor(role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require rejects requests whose capability set lacks cap.
func Require(cap Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Has(r.Context(), cap) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "capability required: "+string(cap)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Has reports whether the context's capability set contains cap.
func Has(ctx context.Context, cap Capability) bool {
	caps, _ := ctx.Value(capabilitiesKey{}).([]Capability)
	for _, c := range caps {
		if c == cap {
			return true
		}
	}
	return false
}

// RoleOf returns the authenticated role, empty when unauthenticated.
func RoleOf(ctx context.Context) domain.Role {
	role, _ := ctx.Value(roleKey{}).(domain.Role)
	return role
}

// WithCapabilities injects a capability set directly; test hook for handler
// tests that skip token minting.
func WithCapabilities(ctx context.Context, caps []Capability) context.Context {
	return context.WithValue(ctx, capabilitiesKey{}, caps)
}
