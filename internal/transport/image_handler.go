package transport

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"car-showroom/internal/domain"
	"car-showroom/internal/middleware"
	"car-showroom/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ImageHandler streams listing images out of the object store
type ImageHandler struct {
	objects storage.ObjectStore
	logger  *zap.Logger
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(objects storage.ObjectStore, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{objects: objects, logger: logger}
}

func (h *ImageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/images/{name}", h.Get)
}

// Get writes the image body. Image names are never reused, so responses are
// cacheable forever.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref := domain.ImageRef{Name: chi.URLParam(r, "name")}

	obj, err := h.objects.Get(r.Context(), ref.ObjectKey())
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "image not found")
			return
		}
		h.logger.Error("Failed to open image", zap.Error(err), zap.String("name", ref.Name))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to load image")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("Image stream interrupted", zap.Error(err), zap.String("name", ref.Name))
	}
}
