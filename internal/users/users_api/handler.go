package users_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/auth"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
	"wildcafe-pos/internal/users"
	"wildcafe-pos/internal/utils"
)

type Handler struct {
	Service *users.Service
	// Issuer is nil when authentication is disabled.
	Issuer  *auth.Issuer
	Revoked auth.RevocationList
	Logger  *logger.Logger
}

func NewHandler(service *users.Service, issuer *auth.Issuer, revoked auth.RevocationList, log *logger.Logger) *Handler {
	return &Handler{Service: service, Issuer: issuer, Revoked: revoked, Logger: log}
}

// RegisterPublicRoutes mounts the routes that must work before a session exists.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/login", h.Login)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/logout", h.Logout)
}

// Login answers with the user for a PIN, or a null user when nothing matches.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Login: failed to decode request body: %v", err))
		utils.WriteError(w, apperr.Validation("Login", "Invalid request body."))
		return
	}

	resp := models.LoginResponse{User: h.Service.CheckLoginPin(r.Context(), req.Pin)}
	if resp.User == nil {
		utils.WriteSuccess(w, http.StatusOK, "Invalid PIN.", resp)
		return
	}

	if h.Issuer != nil {
		token, _, err := h.Issuer.Issue(*resp.User)
		if err != nil {
			h.Logger.Error("AUTH", fmt.Sprintf("Login: %v", err))
			utils.WriteError(w, err)
			return
		}
		resp.Token = token
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("Welcome, %s.", resp.User.Name), resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	if claims != nil && h.Revoked != nil && claims.ExpiresAt != nil {
		if err := h.Revoked.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			h.Logger.Error("AUTH", fmt.Sprintf("Logout: %v", err))
			utils.WriteError(w, err)
			return
		}
		h.Logger.Info("AUTH", fmt.Sprintf("User #%d logged out", claims.UserID()))
	}
	utils.WriteSuccess(w, http.StatusOK, "Logged out.", nil)
}
