package auth_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practiceops/pkg/domain"
	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/platform/middleware/auth"
	"practiceops/pkg/requestcontext"
	"practiceops/pkg/testutil"
)

var signingKey = []byte("auth-test-key")

func mint(t *testing.T, subject string, role domain.Role, key []byte, expiry time.Duration) string {
	t.Helper()
	claims := auth.Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func protected(t *testing.T, onRequest func(r *http.Request)) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if onRequest != nil {
			onRequest(r)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return auth.RequireAuth(signingKey, logger)(inner)
}

func TestRequireAuthResolvesActorAndCapabilities(t *testing.T) {
	staffID := domain.NewStaffID()
	var gotActor domain.StaffID
	var canDecide, canViewTeam bool
	handler := protected(t, func(r *http.Request) {
		gotActor = requestcontext.ActorID(r.Context())
		canDecide = auth.Has(r.Context(), auth.CapDecideLeave)
		canViewTeam = auth.Has(r.Context(), auth.CapViewTeam)
	})

	req := testutil.NewJSONRequest(t, http.MethodGet, "/leave", nil)
	req.Header.Set("Authorization", "Bearer "+mint(t, staffID.String(), domain.RoleDentist, signingKey, time.Hour))
	rec := testutil.Do(handler, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, staffID, gotActor)
	assert.True(t, canDecide, "dentists decide leave")
	assert.False(t, canViewTeam, "dentists hold no team-wide view")
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	handler := protected(t, nil)
	rec := testutil.Do(handler, testutil.NewJSONRequest(t, http.MethodGet, "/leave", nil))
	testutil.AssertErrorCode(t, rec, http.StatusUnauthorized, dErrors.CodeUnauthorized)
}

func TestRequireAuthRejectsWrongKey(t *testing.T) {
	handler := protected(t, nil)
	req := testutil.NewJSONRequest(t, http.MethodGet, "/leave", nil)
	req.Header.Set("Authorization", "Bearer "+mint(t, domain.NewStaffID().String(), domain.RoleDentist, []byte("other"), time.Hour))
	rec := testutil.Do(handler, req)
	testutil.AssertErrorCode(t, rec, http.StatusUnauthorized, dErrors.CodeUnauthorized)
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	handler := protected(t, nil)
	req := testutil.NewJSONRequest(t, http.MethodGet, "/leave", nil)
	req.Header.Set("Authorization", "Bearer "+mint(t, domain.NewStaffID().String(), domain.RoleDentist, signingKey, -time.Minute))
	rec := testutil.Do(handler, req)
	testutil.AssertErrorCode(t, rec, http.StatusUnauthorized, dErrors.CodeUnauthorized)
}

func TestRequireAuthRejectsNonStaffSubject(t *testing.T) {
	handler := protected(t, nil)
	req := testutil.NewJSONRequest(t, http.MethodGet, "/leave", nil)
	req.Header.Set("Authorization", "Bearer "+mint(t, "not-a-uuid", domain.RoleDentist, signingKey, time.Hour))
	rec := testutil.Do(handler, req)
	testutil.AssertErrorCode(t, rec, http.StatusUnauthorized, dErrors.CodeUnauthorized)
}

func TestRequireCapability(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := auth.Require(auth.CapIssueWarning)(inner)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/warnings", nil)
	req = testutil.WithActor(req, domain.NewStaffID(), domain.RoleDentalAssistant)
	rec := testutil.Do(handler, req)
	testutil.AssertErrorCode(t, rec, http.StatusForbidden, dErrors.CodeForbidden)

	req = testutil.NewJSONRequest(t, http.MethodPost, "/warnings", nil)
	req = testutil.WithActor(req, domain.NewStaffID(), domain.RolePracticeManager)
	rec = testutil.Do(handler, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCapabilityMatrix(t *testing.T) {
	cases := []struct {
		role domain.Role
		cap  auth.Capability
		want bool
	}{
		{domain.RoleReceptionist, auth.CapViewOwn, true},
		{domain.RoleReceptionist, auth.CapManageSchedule, false},
		{domain.RoleCleaner, auth.CapViewTeam, false},
		{domain.RoleDentist, auth.CapDecideLeave, true},
		{domain.RoleDentist, auth.CapViewAudit, false},
		{domain.RolePracticeManager, auth.CapScoreKPI, true},
		{domain.RolePracticeManager, auth.CapViewAudit, false},
		{domain.RoleSuperAdmin, auth.CapViewAudit, true},
		{domain.RoleSuperAdmin, auth.CapManageSchedule, true},
		{domain.Role("Unknown"), auth.CapViewOwn, false},
	}
	for _, tc := range cases {
		caps := auth.CapabilitiesFor(tc.role)
		got := false
		for _, c := range caps {
			if c == tc.cap {
				got = true
			}
		}
		assert.Equal(t, tc.want, got, "%s / %s", tc.role, tc.cap)
	}
}
