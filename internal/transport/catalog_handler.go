package transport

import (
	"errors"
	"net/http"

	"car-showroom/internal/middleware"
	"car-showroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the public vehicle catalog
type CatalogHandler struct {
	queries service.ListingQueryService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(queries service.ListingQueryService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{queries: queries, logger: logger}
}

func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cars", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/featured", h.Featured)
		r.Get("/{id}", h.Get)
	})
}

// List returns every listing, newest first. With ?q= only the listings whose
// name starts with q are returned.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		cars []service.CarView
		err  error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		cars, err = h.queries.SearchByNamePrefix(r.Context(), q)
	} else {
		cars, err = h.queries.ListAll(r.Context())
	}
	if err != nil {
		h.logger.Error("Failed to list cars", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list cars")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cars)
}

// Featured returns the listings promoted on the homepage
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	cars, err := h.queries.ListFeatured(r.Context())
	if err != nil {
		h.logger.Error("Failed to list featured cars", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list featured cars")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cars)
}

// Get returns one listing
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	car, err := h.queries.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "car not found")
			return
		}
		h.logger.Error("Failed to get car", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get car")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, car)
}
