package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"practiceops/internal/schedule"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/httputil"
	"practiceops/pkg/platform/middleware/auth"
	"practiceops/pkg/requestcontext"
)

type scheduleHandler struct {
	service *schedule.Service
	logger  *slog.Logger
}

func newScheduleHandler(service *schedule.Service, logger *slog.Logger) *scheduleHandler {
	return &scheduleHandler{service: service, logger: logger}
}

func (h *scheduleHandler) Register(r chi.Router) {
	r.With(auth.Require(auth.CapManageSchedule)).Post("/schedule", h.handleAssign)
	r.With(auth.Require(auth.CapManageSchedule)).Delete("/schedule/{id}", h.handleUnassign)
	r.With(auth.Require(auth.CapManageSchedule)).Get("/schedule/conflicts", h.handleConflicts)
	r.With(auth.Require(auth.CapViewTeam)).Get("/schedule/day", h.handleDay)
	r.Get("/schedule/status", h.handleStatus)
}

type assignRequest struct {
	StaffID string `json:"staff_id"`
	Date    string `json:"date"`
	Shift   string `json:"shift"`
	Role    string `json:"role"`
	Room    string `json:"room,omitempty"`
}

type assignmentResponse struct {
	ID      string `json:"id"`
	StaffID string `json:"staff_id"`
	Date    string `json:"date"`
	Shift   string `json:"shift"`
	Role    string `json:"role"`
	Room    string `json:"room,omitempty"`
}

func toAssignmentResponse(a schedule.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:      a.ID.String(),
		StaffID: a.Staff.String(),
		Date:    a.Date.Format(dateLayout),
		Shift:   string(a.Shift),
		Role:    string(a.RoleOnDuty),
		Room:    a.Room,
	}
}

func (h *scheduleHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.Decode[assignRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	staffID, err := domain.ParseStaffID(req.StaffID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	date, err := parseDate(req.Date, "date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	a, err := h.service.Assign(ctx, schedule.AssignRequest{
		Staff:      staffID,
		Date:       date,
		Shift:      schedule.Shift(req.Shift),
		RoleOnDuty: domain.Role(req.Role),
		Room:       req.Room,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "schedule assignment failed",
			"request_id", requestcontext.RequestID(ctx),
			"staff_id", req.StaffID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAssignmentResponse(a))
}

func (h *scheduleHandler) handleUnassign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseAssignmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Unassign(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *scheduleHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	staffID, err := resolveStaff(r, r.URL.Query().Get("staff_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"), "date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.service.StatusFor(r.Context(), staffID, date)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	body := map[string]any{"status": string(status.Status)}
	if status.Assignment != nil {
		body["assignment"] = toAssignmentResponse(*status.Assignment)
	}
	if status.Leave != nil {
		body["leave"] = toLeaveResponse(*status.Leave)
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

func (h *scheduleHandler) handleDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"), "date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	assignments, err := h.service.ScheduleFor(r.Context(), date)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"assignments": out})
}

func (h *scheduleHandler) handleConflicts(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"), "from")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"), "to")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	conflicts, err := h.service.Conflicts(r.Context(), from, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, map[string]any{
			"assignment": toAssignmentResponse(c.Assignment),
			"leave":      toLeaveResponse(c.Leave),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"conflicts": out})
}
