package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"practiceops/internal/kpi"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/httputil"
	"practiceops/pkg/platform/middleware/auth"
	"practiceops/pkg/requestcontext"
)

type kpiHandler struct {
	service *kpi.Service
	logger  *slog.Logger
}

func newKPIHandler(service *kpi.Service, logger *slog.Logger) *kpiHandler {
	return &kpiHandler{service: service, logger: logger}
}

func (h *kpiHandler) Register(r chi.Router) {
	r.With(auth.Require(auth.CapScoreKPI)).Post("/kpi/observations", h.handleObserve)
	r.With(auth.Require(auth.CapScoreKPI)).Post("/kpi/periods/{key}/close", h.handleClose)
	r.With(auth.Require(auth.CapViewTeam)).Get("/kpi/periods/{key}/ranking", h.handleRanking)
	r.With(auth.Require(auth.CapViewTeam)).Get("/kpi/periods/{key}/best", h.handleBest)
	r.Get("/kpi/periods/{key}/score", h.handleScore)
}

type observationRequest struct {
	StaffID  string `json:"staff_id"`
	Period   string `json:"period"`
	Category string `json:"category"`
	Met      bool   `json:"met"`
	Note     string `json:"note,omitempty"`
}

type scoreResponse struct {
	StaffID string  `json:"staff_id"`
	Period  string  `json:"period"`
	Met     int     `json:"met"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
	Passing bool    `json:"passing"`
}

func toScoreResponse(s kpi.Score) scoreResponse {
	return scoreResponse{
		StaffID: s.Staff.String(),
		Period:  s.PeriodKey,
		Met:     s.Met,
		Total:   s.Total,
		Percent: s.Percent,
		Passing: s.Passing,
	}
}

func (h *kpiHandler) handleObserve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.Decode[observationRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	staffID, err := domain.ParseStaffID(req.StaffID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	period, err := kpi.ParsePeriod(req.Period)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	obs, err := h.service.RecordObservation(ctx, kpi.ObservationRequest{
		Staff:    staffID,
		Period:   period,
		Category: kpi.Category(req.Category),
		Met:      req.Met,
		Note:     req.Note,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "kpi observation failed",
			"request_id", requestcontext.RequestID(ctx),
			"staff_id", req.StaffID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":     obs.ID.String(),
		"period": obs.PeriodKey,
	})
}

func (h *kpiHandler) handleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, err := kpi.ParsePeriod(chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	closed, err := h.service.ClosePeriod(ctx, period)
	if err != nil {
		h.logger.ErrorContext(ctx, "kpi period close failed",
			"request_id", requestcontext.RequestID(ctx),
			"period", period.Key(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"period":    closed.PeriodKey,
		"closed_at": closed.ClosedAt.Format(timeLayout),
	})
}

func (h *kpiHandler) handleRanking(w http.ResponseWriter, r *http.Request) {
	scores, err := h.service.Rank(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]scoreResponse, 0, len(scores))
	for _, s := range scores {
		out = append(out, toScoreResponse(s))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ranking": out})
}

func (h *kpiHandler) handleBest(w http.ResponseWriter, r *http.Request) {
	best, ok, err := h.service.BestOfPeriod(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !ok {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"best": nil})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"best": toScoreResponse(best)})
}

func (h *kpiHandler) handleScore(w http.ResponseWriter, r *http.Request) {
	staffID, err := resolveStaff(r, r.URL.Query().Get("staff_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	score, ok, err := h.service.ScoreFor(r.Context(), staffID, chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !ok {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"score": nil, "excluded": true})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"score": toScoreResponse(score), "excluded": false})
}
