package transport

import (
	"errors"
	"net/http"

	"car-showroom/internal/middleware"
	"car-showroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ListingHandler serves the dashboard's listing table
type ListingHandler struct {
	queries  service.ListingQueryService
	listings service.ListingService
	logger   *zap.Logger
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(queries service.ListingQueryService, listings service.ListingService, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{queries: queries, listings: listings, logger: logger}
}

// RegisterRoutes mounts the handler on an already authenticated router
func (h *ListingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cars", h.List)
	r.Delete("/cars/{id}", h.Delete)
}

// List returns every listing in store order
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	cars, err := h.queries.ListForDashboard(r.Context())
	if err != nil {
		h.logger.Error("Failed to list dashboard cars", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list cars")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cars)
}

// Delete removes a listing and reports images that could not be removed
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.listings.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "car not found")
			return
		}
		h.logger.Error("Failed to delete car", zap.Error(err), zap.String("listing_id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete car")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}
