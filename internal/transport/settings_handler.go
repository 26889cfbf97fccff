package transport

import (
	"errors"
	"net/http"

	"car-showroom/internal/domain"
	"car-showroom/internal/middleware"
	"car-showroom/internal/repository"
	"car-showroom/internal/service"
	"car-showroom/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SettingsHandler serves the site theme and the caller's session view
type SettingsHandler struct {
	settings service.SettingsService
	auth     service.AuthService
	app      *session.AppContext
	logger   *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings service.SettingsService, auth service.AuthService, app *session.AppContext, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, auth: auth, app: app, logger: logger}
}

// RegisterRoutes mounts the public routes. optionalAuth must attach the
// caller's identity when one is presented.
func (h *SettingsHandler) RegisterRoutes(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Get("/api/settings", h.Get)
	r.With(optionalAuth).Get("/api/session", h.Session)
}

// RegisterDashboardRoutes mounts the admin routes on an authenticated router
func (h *SettingsHandler) RegisterDashboardRoutes(r chi.Router) {
	r.Put("/settings", h.Update)
}

// Get returns the stored site settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "settings not found")
			return
		}
		h.logger.Error("Failed to get settings", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, settings)
}

// Update replaces the site settings and the live theme
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Settings validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	if err := h.settings.Update(r.Context(), &req); err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "settings not found")
			return
		}
		h.logger.Error("Failed to update settings", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	h.logger.Info("Site settings updated")
	middleware.RespondWithJSON(w, http.StatusOK, req)
}

// Session tells the client whether it is signed in, who it is and which
// theme to render.
func (h *SettingsHandler) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		middleware.RespondWithJSON(w, http.StatusOK, h.app.View(nil))
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Warn("Token names an unknown admin", zap.Error(err), zap.String("user_id", userID.String()))
		middleware.RespondWithJSON(w, http.StatusOK, h.app.View(nil))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.app.View(user))
}
