package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"car-showroom/internal/form"
	"car-showroom/internal/middleware"
	"car-showroom/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaxImageUpload caps one multipart image upload.
const MaxImageUpload = 10 << 20

// StartDraftRequest opens a draft. An empty listing_id starts a new listing.
type StartDraftRequest struct {
	ListingID string `json:"listing_id" validate:"omitempty,uuid"`
}

// PriceRequest carries either the full text of the price field after a
// keystroke or a focus event.
type PriceRequest struct {
	Text  *string `json:"text"`
	Focus bool    `json:"focus"`
}

// TextRequest carries the full text of a masked field.
type TextRequest struct {
	Text string `json:"text"`
}

// DraftResponse is the draft after an action, with whatever the admin should
// be shown or sent to.
type DraftResponse struct {
	State         form.State          `json:"state"`
	Notifications []form.Notification `json:"notifications"`
	Redirect      string              `json:"redirect,omitempty"`
}

// DraftHandler drives listing drafts from the dashboard
type DraftHandler struct {
	orchestrator *form.Orchestrator
	logger       *zap.Logger
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(orchestrator *form.Orchestrator, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{orchestrator: orchestrator, logger: logger}
}

// RegisterRoutes mounts the handler on an already authenticated router.
// requireJSON guards the endpoints that take a JSON body.
func (h *DraftHandler) RegisterRoutes(r chi.Router, requireJSON func(http.Handler) http.Handler) {
	r.Route("/drafts", func(r chi.Router) {
		r.With(requireJSON).Post("/", h.Start)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Discard)
		r.Post("/{id}/images", h.UploadImage)
		r.Delete("/{id}/images/{name}", h.DeleteImage)
		r.With(requireJSON).Put("/{id}/price", h.Price)
		r.With(requireJSON).Put("/{id}/whatsapp", h.WhatsApp)
		r.With(requireJSON).Post("/{id}/submit", h.Submit)
	})
}

// Start opens a new draft for the signed-in admin
func (h *DraftHandler) Start(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req StartDraftRequest
	if r.ContentLength != 0 {
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			respondDecodeError(w, err)
			return
		}
	}

	s, err := h.orchestrator.Start(r.Context(), owner, req.ListingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "car not found")
			return
		}
		h.logger.Error("Failed to start draft", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to start draft")
		return
	}

	h.logger.Debug("Draft started",
		zap.String("draft_id", s.ID),
		zap.String("mode", string(s.Mode)),
		zap.String("listing_id", s.ListingID),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, DraftResponse{State: s, Notifications: []form.Notification{}})
}

// Get returns the current draft state
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, ui, ok := h.bind(w, r)
	if !ok {
		return
	}
	s, err := f.State(r.Context())
	h.respond(w, s, ui, err)
}

// Discard drops the draft without writing anything
func (h *DraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	f, ui, ok := h.bind(w, r)
	if !ok {
		return
	}
	if err := f.Discard(r.Context()); err != nil {
		h.respond(w, form.State{}, ui, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage stores the multipart "file" part and adds it to the draft
func (h *DraftHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	f, ui, ok := h.bind(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageUpload+1<<20)
	if err := r.ParseMultipartForm(MaxImageUpload); err != nil {
		h.logger.Debug("Invalid upload", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	body, contentType, err := sniffContentType(file, header.Header.Get("Content-Type"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "unreadable file")
		return
	}

	s, err := f.HandleFileSelected(r.Context(), form.File{
		Name:        header.Filename,
		ContentType: contentType,
		Body:        body,
	})
	h.respond(w, s, ui, err)
}

// DeleteImage removes one image from the draft and the object store
func (h *DraftHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	f, ui, ok := h.bind(w, r)
	if !ok {
		return
	}
	s, err := f.HandleDeleteImage(r.Context(), chi.URLParam(r, "name"))
	h.respond(w, s, ui, err)
}

// Price feeds a keystroke or focus event to the price field
func (h *DraftHandler) Price(w http.ResponseWriter, r *http.Request) {
	f, ui, ok := h.bind(w, r)
	if !ok {
		return
	}

	var req PriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		s   form.State
		err error
	)
	switch {
	case req.Focus:
		s, err = f.FocusPrice(r.Context())
	case req.Text != nil:
		s, err = f.KeyPrice(r.Context(), *req.Text)
	default:
		middleware.RespondWithError(w, http.StatusBadRequest, "text or focus is required")
		return
	}
	h.respond(w, s, ui, err)
}

// WhatsApp feeds the full text of the phone field through its mask
func (h *DraftHandler) WhatsApp(w http.ResponseWriter, r *http.Request) {
	f, ui, ok := h.bind(w, r)
	if !ok {
		return
	}

	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := f.KeyWhatsApp(r.Context(), req.Text)
	h.respond(w, s, ui, err)
}

// Submit validates the draft and writes the listing
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	f, ui, ok := h.bind(w, r)
	if !ok {
		return
	}

	var fields form.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := f.Submit(r.Context(), fields)
	if err == nil {
		h.logger.Info("Listing saved from draft", zap.String("draft_id", chi.URLParam(r, "id")))
	}
	h.respond(w, s, ui, err)
}

// bind resolves the draft named in the URL for the signed-in admin.
func (h *DraftHandler) bind(w http.ResponseWriter, r *http.Request) (*form.Form, *form.Collector, bool) {
	owner, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return nil, nil, false
	}
	ui := form.NewCollector()
	return h.orchestrator.Form(chi.URLParam(r, "id"), owner, ui, ui), ui, true
}

// respond maps a draft action outcome onto the response. Failures carry the
// notifications and, when known, the draft state in the error details.
func (h *DraftHandler) respond(w http.ResponseWriter, s form.State, ui *form.Collector, err error) {
	notifications := ui.Notifications()
	if notifications == nil {
		notifications = []form.Notification{}
	}

	if err == nil {
		middleware.RespondWithJSON(w, http.StatusOK, DraftResponse{
			State:         s,
			Notifications: notifications,
			Redirect:      ui.Redirect(),
		})
		return
	}

	var validationErr *form.ValidationError
	if errors.As(err, &validationErr) {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	status := http.StatusBadGateway
	switch {
	case errors.Is(err, form.ErrDraftNotFound), errors.Is(err, form.ErrImageNotFound):
		status = http.StatusNotFound
	case form.IsRuleViolation(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, form.ErrUnsupportedImageType):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, form.ErrSubmitInProgress), errors.Is(err, form.ErrConcurrentUpdate):
		status = http.StatusConflict
	default:
		h.logger.Error("Draft action failed", zap.Error(err), zap.String("draft_id", s.ID))
	}

	message := err.Error()
	if len(notifications) > 0 {
		message = notifications[len(notifications)-1].Message
	}

	details := map[string]interface{}{"notifications": notifications}
	if s.ID != "" {
		details["state"] = s
	}
	middleware.RespondWithErrorDetails(w, status, message, details)
}

// sniffContentType trusts a declared image type and otherwise detects the
// type from the first bytes. The returned reader replays those bytes.
func sniffContentType(r io.Reader, declared string) (io.Reader, string, error) {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
		return r, mediaType, nil
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	head = head[:n]
	return io.MultiReader(bytes.NewReader(head), r), http.DetectContentType(head), nil
}
