package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"practiceops/internal/timeline"
	"practiceops/pkg/platform/httputil"
	"practiceops/pkg/requestcontext"
)

type timelineHandler struct {
	service *timeline.Service
	logger  *slog.Logger
}

func newTimelineHandler(service *timeline.Service, logger *slog.Logger) *timelineHandler {
	return &timelineHandler{service: service, logger: logger}
}

func (h *timelineHandler) Register(r chi.Router) {
	r.Get("/timeline", h.handleTimeline)
}

type timelineEventResponse struct {
	Time    string `json:"time"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (h *timelineHandler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	staffID, err := resolveStaff(r, r.URL.Query().Get("staff_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
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
	// Make the window inclusive of the final day.
	to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)

	events, err := h.service.Build(ctx, staffID, from, to)
	if err != nil {
		h.logger.ErrorContext(ctx, "timeline build failed",
			"request_id", requestcontext.RequestID(ctx),
			"staff_id", staffID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]timelineEventResponse, 0, len(events))
	for _, e := range events {
		resp := timelineEventResponse{
			Time: e.Time.UTC().Format(timeLayout),
			Type: string(e.Type),
		}
		switch e.Type {
		case timeline.EventWarning:
			resp.Payload = toWarningResponse(*e.Warning)
		case timeline.EventRecognition:
			resp.Payload = map[string]any{
				"id":      e.Recognition.ID.String(),
				"kind":    string(e.Recognition.Kind),
				"message": e.Recognition.Message,
			}
		case timeline.EventKPIScore:
			resp.Payload = toScoreResponse(e.KPIScore.Score)
		case timeline.EventTaskComplete:
			resp.Payload = map[string]any{
				"task_id": e.Task.Task.String(),
				"title":   e.Task.Title,
			}
		case timeline.EventLeave:
			resp.Payload = toLeaveResponse(*e.Leave)
		}
		out = append(out, resp)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
}
