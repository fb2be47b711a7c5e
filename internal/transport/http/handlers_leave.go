package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"practiceops/internal/leave"
	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/httputil"
	"practiceops/pkg/platform/middleware/auth"
	"practiceops/pkg/requestcontext"
)

type leaveHandler struct {
	service *leave.Service
	logger  *slog.Logger
}

func newLeaveHandler(service *leave.Service, logger *slog.Logger) *leaveHandler {
	return &leaveHandler{service: service, logger: logger}
}

func (h *leaveHandler) Register(r chi.Router) {
	r.Post("/leave", h.handleSubmit)
	r.Get("/leave", h.handleList)
	r.With(auth.Require(auth.CapDecideLeave)).Post("/leave/{id}/decision", h.handleDecide)
}

type submitLeaveRequest struct {
	StaffID string `json:"staff_id,omitempty"`
	Type    string `json:"type"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Reason  string `json:"reason,omitempty"`
}

type leaveResponse struct {
	ID           string  `json:"id"`
	StaffID      string  `json:"staff_id"`
	Type         string  `json:"type"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Reason       string  `json:"reason,omitempty"`
	Status       string  `json:"status"`
	DecidedBy    *string `json:"decided_by,omitempty"`
	DecidedAt    *string `json:"decided_at,omitempty"`
	DecisionNote string  `json:"decision_note,omitempty"`
}

func toLeaveResponse(iv leave.Interval) leaveResponse {
	resp := leaveResponse{
		ID:           iv.ID.String(),
		StaffID:      iv.Staff.String(),
		Type:         string(iv.Type),
		Start:        iv.Start.Format(dateLayout),
		End:          iv.End.Format(dateLayout),
		Reason:       iv.Reason,
		Status:       string(iv.Status),
		DecidedAt:    timePtr(iv.DecidedAt),
		DecisionNote: iv.DecisionNote,
	}
	if iv.DecidedBy != nil {
		v := iv.DecidedBy.String()
		resp.DecidedBy = &v
	}
	return resp
}

func (h *leaveHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.Decode[submitLeaveRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	staffID := requestcontext.ActorID(ctx)
	if req.StaffID != "" {
		staffID, err = domain.ParseStaffID(req.StaffID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if staffID != requestcontext.ActorID(ctx) && !auth.Has(ctx, auth.CapViewTeam) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "submitting for other staff requires the view_team capability"))
			return
		}
	}

	start, err := parseDate(req.Start, "start")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	end, err := parseDate(req.End, "end")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	iv, err := h.service.Submit(ctx, leave.SubmitRequest{
		Staff:  staffID,
		Type:   leave.Type(req.Type),
		Start:  start,
		End:    end,
		Reason: req.Reason,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "leave submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toLeaveResponse(iv))
}

type decideLeaveRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note,omitempty"`
}

func (h *leaveHandler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseLeaveIntervalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[decideLeaveRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	iv, err := h.service.Decide(ctx, id, leave.Decision(req.Decision), req.Note)
	if err != nil {
		h.logger.ErrorContext(ctx, "leave decision failed",
			"request_id", requestcontext.RequestID(ctx),
			"interval_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLeaveResponse(iv))
}

func (h *leaveHandler) handleList(w http.ResponseWriter, r *http.Request) {
	staffID, err := resolveStaff(r, r.URL.Query().Get("staff_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	intervals, err := h.service.ListByStaff(r.Context(), staffID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]leaveResponse, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, toLeaveResponse(iv))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"intervals": out})
}
