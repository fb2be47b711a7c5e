// Package httptransport is the thin HTTP layer: decode, capability check,
// delegate to a service, encode. No business rules live here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"practiceops/internal/attendance"
	"practiceops/internal/kpi"
	"practiceops/internal/leave"
	"practiceops/internal/recognition"
	"practiceops/internal/schedule"
	"practiceops/internal/tasks"
	"practiceops/internal/timeline"
	"practiceops/internal/warning"
	"practiceops/pkg/platform/audit"
	"practiceops/pkg/platform/middleware/auth"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Leave       *leave.Service
	Schedule    *schedule.Service
	KPI         *kpi.Service
	Warnings    *warning.Service
	Attendance  *attendance.Service
	Tasks       *tasks.Service
	Recognition *recognition.Service
	Timeline    *timeline.Service
	Audit       *audit.Recorder

	JWTSigningKey []byte
	Logger        *slog.Logger
}

// NewRouter assembles the full route tree. Everything under the
// authenticated group requires a valid bearer token; individual routes add
// capability checks on top.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.JWTSigningKey, deps.Logger))

		newLeaveHandler(deps.Leave, deps.Logger).Register(r)
		newScheduleHandler(deps.Schedule, deps.Logger).Register(r)
		newKPIHandler(deps.KPI, deps.Logger).Register(r)
		newWarningHandler(deps.Warnings, deps.Logger).Register(r)
		newEventsHandler(deps.Attendance, deps.Tasks, deps.Recognition, deps.Logger).Register(r)
		newTimelineHandler(deps.Timeline, deps.Logger).Register(r)
		newAuditHandler(deps.Audit, deps.Logger).Register(r)
	})

	return otelhttp.NewHandler(r, "practiceops")
}
