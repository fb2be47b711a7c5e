package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"practiceops/internal/attendance"
	"practiceops/internal/recognition"
	"practiceops/internal/tasks"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/httputil"
	"practiceops/pkg/platform/middleware/auth"
	"practiceops/pkg/requestcontext"
)

// eventsHandler covers the inbound event feeds: lateness, task outcomes, and
// recognition.
type eventsHandler struct {
	attendance   *attendance.Service
	tasks        *tasks.Service
	recognitions *recognition.Service
	logger       *slog.Logger
}

func newEventsHandler(a *attendance.Service, t *tasks.Service, rec *recognition.Service, logger *slog.Logger) *eventsHandler {
	return &eventsHandler{attendance: a, tasks: t, recognitions: rec, logger: logger}
}

func (h *eventsHandler) Register(r chi.Router) {
	r.With(auth.Require(auth.CapRecordEvents)).Post("/events/lateness", h.handleLateness)
	r.With(auth.Require(auth.CapRecordEvents)).Post("/events/tasks", h.handleTaskOutcome)
	r.With(auth.Require(auth.CapIssueWarning)).Post("/recognitions", h.handleRecognition)
}

type latenessRequest struct {
	StaffID     string `json:"staff_id"`
	Date        string `json:"date"`
	MinutesLate int    `json:"minutes_late"`
	Note        string `json:"note,omitempty"`
}

func (h *eventsHandler) handleLateness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.Decode[latenessRequest](r)
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

	event, err := h.attendance.Record(ctx, attendance.RecordRequest{
		Staff:       staffID,
		Date:        date,
		MinutesLate: req.MinutesLate,
		Note:        req.Note,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "lateness event failed",
			"request_id", requestcontext.RequestID(ctx),
			"staff_id", req.StaffID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"seq": event.Seq})
}

type taskOutcomeRequest struct {
	TaskID  string `json:"task_id"`
	StaffID string `json:"staff_id"`
	Title   string `json:"title,omitempty"`
	Outcome string `json:"outcome"`
}

func (h *eventsHandler) handleTaskOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.Decode[taskOutcomeRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	taskID, err := domain.ParseTaskID(req.TaskID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	staffID, err := domain.ParseStaffID(req.StaffID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	event, err := h.tasks.Record(ctx, tasks.RecordRequest{
		Task:    taskID,
		Staff:   staffID,
		Title:   req.Title,
		Outcome: tasks.Outcome(req.Outcome),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "task event failed",
			"request_id", requestcontext.RequestID(ctx),
			"task_id", req.TaskID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"seq": event.Seq})
}

type recognitionRequest struct {
	StaffID string `json:"staff_id"`
	Message string `json:"message"`
}

func (h *eventsHandler) handleRecognition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.Decode[recognitionRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	staffID, err := domain.ParseStaffID(req.StaffID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	event, err := h.recognitions.Give(ctx, staffID, req.Message)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"id": event.ID.String()})
}
