package settings_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
	"wildcafe-pos/internal/settings"
	"wildcafe-pos/internal/utils"
)

type Handler struct {
	Service *settings.Service
	Logger  *logger.Logger
}

func NewHandler(service *settings.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.GetSettings)
		r.Put("/", h.UpdateSettings)
		r.Get("/currency", h.GetCurrency)
	})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.GetSettings(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Settings loaded.", s)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "UpdateSettings: received request")

	var in models.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateSettings: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Validation("UpdateSettings", "Invalid request body."))
		return
	}

	s, err := h.Service.UpdateSettings(r.Context(), in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, settings.MsgUpdated, s)
}

func (h *Handler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "Currency loaded.", map[string]string{
		"currency_symbol": h.Service.GetCurrency(r.Context()),
	})
}
