package report_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/report"
	"wildcafe-pos/internal/utils"
)

// Handler handles report HTTP endpoints
type Handler struct {
	Service *report.Service
	Logger  *logger.Logger
}

func NewHandler(service *report.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes registers the report routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/{kind}", h.FetchReport)
		r.Get("/{kind}/summary", h.FetchSummary)
	})
}

// FetchReport serves GET /reports/{kind}?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func (h *Handler) FetchReport(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	q := r.URL.Query()
	h.Logger.Info("REPORT", fmt.Sprintf("FetchReport: kind=%s start=%s end=%s", kind, q.Get("startDate"), q.Get("endDate")))

	rows, err := h.Service.FetchReport(r.Context(), kind, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d rows", len(rows)), rows)
}

func (h *Handler) FetchSummary(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	q := r.URL.Query()

	sum, err := h.Service.FetchSummary(r.Context(), kind, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%s summary", sum.Kind), sum)
}
