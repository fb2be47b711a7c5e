package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"practiceops/internal/warning"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/httputil"
	"practiceops/pkg/platform/middleware/auth"
	"practiceops/pkg/requestcontext"
)

type warningHandler struct {
	service *warning.Service
	logger  *slog.Logger
}

func newWarningHandler(service *warning.Service, logger *slog.Logger) *warningHandler {
	return &warningHandler{service: service, logger: logger}
}

func (h *warningHandler) Register(r chi.Router) {
	r.With(auth.Require(auth.CapIssueWarning)).Post("/warnings", h.handleIssue)
	r.Get("/warnings", h.handleList)
}

type issueWarningRequest struct {
	StaffID string `json:"staff_id"`
	Reason  string `json:"reason"`
}

type warningResponse struct {
	ID       string  `json:"id"`
	StaffID  string  `json:"staff_id"`
	Kind     string  `json:"kind"`
	Rule     string  `json:"rule"`
	Reason   string  `json:"reason"`
	IssuedBy *string `json:"issued_by,omitempty"`
	IssuedAt string  `json:"issued_at"`
}

func toWarningResponse(rec warning.Record) warningResponse {
	resp := warningResponse{
		ID:       rec.ID.String(),
		StaffID:  rec.Staff.String(),
		Kind:     string(rec.Kind),
		Rule:     rec.Rule,
		Reason:   rec.Reason,
		IssuedAt: rec.IssuedAt.Format(timeLayout),
	}
	if rec.IssuedBy != nil {
		v := rec.IssuedBy.String()
		resp.IssuedBy = &v
	}
	return resp
}

func (h *warningHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.Decode[issueWarningRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	staffID, err := domain.ParseStaffID(req.StaffID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.IssueManual(ctx, staffID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "warning issue failed",
			"request_id", requestcontext.RequestID(ctx),
			"staff_id", req.StaffID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toWarningResponse(rec))
}

func (h *warningHandler) handleList(w http.ResponseWriter, r *http.Request) {
	staffID, err := resolveStaff(r, r.URL.Query().Get("staff_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.service.ListByStaff(r.Context(), staffID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]warningResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toWarningResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"warnings": out})
}
