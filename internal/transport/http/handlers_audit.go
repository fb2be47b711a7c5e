package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	"practiceops/pkg/platform/httputil"
	"practiceops/pkg/platform/middleware/auth"
)

type auditHandler struct {
	recorder *audit.Recorder
	logger   *slog.Logger
}

func newAuditHandler(recorder *audit.Recorder, logger *slog.Logger) *auditHandler {
	return &auditHandler{recorder: recorder, logger: logger}
}

func (h *auditHandler) Register(r chi.Router) {
	r.With(auth.Require(auth.CapViewAudit)).Get("/audit", h.handleQuery)
}

type auditEntryResponse struct {
	ID         string         `json:"id"`
	Seq        uint64         `json:"seq"`
	ActorID    *string        `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Details    map[string]any `json:"details,omitempty"`
	Origin     string         `json:"origin"`
	Timestamp  string         `json:"timestamp"`
}

func (h *auditHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     audit.Action(q.Get("action")),
		TargetType: q.Get("target_type"),
		TargetID:   q.Get("target_id"),
	}
	if raw := q.Get("actor_id"); raw != "" {
		actorID, err := domain.ParseStaffID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Actor = &actorID
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "from must be an RFC3339 timestamp"))
			return
		}
		filter.From = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "to must be an RFC3339 timestamp"))
			return
		}
		filter.To = to
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	entries, err := h.recorder.Query(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := auditEntryResponse{
			ID:         e.ID.String(),
			Seq:        e.Seq,
			Action:     string(e.Action),
			TargetType: e.TargetType,
			TargetID:   e.TargetID,
			Details:    e.Details,
			Origin:     e.Origin,
			Timestamp:  e.Timestamp.UTC().Format(timeLayout),
		}
		if e.Actor != nil {
			v := e.Actor.String()
			resp.ActorID = &v
		}
		out = append(out, resp)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": out})
}
