package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"car-showroom/internal/currencyinput"
	"car-showroom/internal/domain"
	"car-showroom/internal/money"
	"car-showroom/internal/phonemask"
	"car-showroom/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedImageType = errors.New("only jpeg and png images are accepted")
	ErrImageNotFound        = errors.New("image not found in draft")
	ErrNoImages             = errors.New("at least one image is required")
	ErrUploadsPending       = errors.New("image uploads still in progress")
	ErrSubmitInProgress     = errors.New("draft is already being submitted")
)

// Business rule failures reported to the admin before any write.
var ruleMessages = map[error]string{
	currencyinput.ErrPriceRequired: "The vehicle price is required.",
	currencyinput.ErrPriceZero:     "The vehicle price cannot be zero.",
	currencyinput.ErrPriceTooLarge: "The vehicle price is too large.",
	ErrNoImages:                    "Upload at least one image.",
	ErrUploadsPending:              "Wait for the image uploads to finish.",
}

// IsRuleViolation reports whether err is a submit rule failure.
func IsRuleViolation(err error) bool {
	for rule := range ruleMessages {
		if errors.Is(err, rule) {
			return true
		}
	}
	return false
}

// ValidationError lists the invalid form fields.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string { return "invalid form fields: " + e.Cause.Error() }
func (e *ValidationError) Unwrap() error { return e.Cause }

// ListingWriter persists composed listings.
type ListingWriter interface {
	Create(ctx context.Context, listing *domain.Listing) error
	Update(ctx context.Context, listing *domain.Listing) error
}

// ListingReader loads a stored listing for editing.
type ListingReader interface {
	FindByID(ctx context.Context, id string) (*domain.ListingDocument, error)
}

// StructValidator validates tagged structs.
type StructValidator interface {
	Struct(s interface{}) error
}

// File is one image picked by the admin.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Orchestrator owns the collaborators shared by every draft.
type Orchestrator struct {
	store     StateStore
	objects   storage.ObjectStore
	listings  ListingWriter
	reader    ListingReader
	validate  StructValidator
	publicURL string
	logger    *zap.Logger
}

func NewOrchestrator(
	store StateStore,
	objects storage.ObjectStore,
	listings ListingWriter,
	reader ListingReader,
	validate StructValidator,
	publicURL string,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		objects:   objects,
		listings:  listings,
		reader:    reader,
		validate:  validate,
		publicURL: publicURL,
		logger:    logger,
	}
}

// Start opens a new draft owned by owner. An empty listingID starts a new
// listing; otherwise the stored listing is loaded for editing.
func (o *Orchestrator) Start(ctx context.Context, owner, listingID string) (State, error) {
	s := newState(uuid.NewString(), owner)

	if listingID != "" {
		doc, err := o.reader.FindByID(ctx, listingID)
		if err != nil {
			return State{}, fmt.Errorf("failed to load listing: %w", err)
		}
		seedFromDocument(&s, doc)
	}

	if err := o.store.Create(ctx, s); err != nil {
		return State{}, err
	}
	return s, nil
}

// DiscardOwner removes every draft of owner.
func (o *Orchestrator) DiscardOwner(ctx context.Context, owner string) (int, error) {
	return o.store.DeleteByOwner(ctx, owner)
}

// Form binds one draft to the UI collaborators of the current request.
func (o *Orchestrator) Form(draftID, owner string, n Notifier, nav Navigator) *Form {
	return &Form{o: o, id: draftID, owner: owner, notify: n, nav: nav}
}

func seedFromDocument(s *State, doc *domain.ListingDocument) {
	s.Mode = ModeEdit
	s.ListingID = doc.ID

	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	s.Fields = Fields{
		Name:        deref(doc.Name),
		Model:       deref(doc.Model),
		Year:        deref(doc.Year),
		Km:          deref(doc.Km),
		City:        deref(doc.City),
		Color:       deref(doc.Color),
		WhatsApp:    deref(doc.WhatsApp),
		Description: deref(doc.Description),
		Featured:    domain.FeaturedFlag(deref(doc.Featured)),
	}

	if doc.Price != nil {
		s.Price = strconv.FormatInt(int64(*doc.Price), 10)
		ctrl := currencyinput.New(nil)
		ctrl.OnExternalValue(money.Format(*doc.Price))
		s.PriceInput = ctrl.Snapshot()
	}

	for _, img := range doc.Images {
		s.Images = append(s.Images, Image{Name: img.Name, PreviewURL: img.URL, URL: img.URL})
	}
}

// Form is the per-request handle on a draft.
type Form struct {
	o      *Orchestrator
	id     string
	owner  string
	notify Notifier
	nav    Navigator
}

// update runs fn against the draft after checking it belongs to the caller.
func (f *Form) update(ctx context.Context, fn func(*State) error) (State, error) {
	return f.o.store.Update(ctx, f.id, func(s *State) error {
		if s.OwnerUID != f.owner {
			return ErrDraftNotFound
		}
		return fn(s)
	})
}

// settleTimeout bounds the draft writes that follow a remote call.
const settleTimeout = 5 * time.Second

// settle is update for bookkeeping after an upload or listing write. It runs
// even when the request has been cancelled so the draft never stays stuck
// uploading or submitting.
func (f *Form) settle(ctx context.Context, fn func(*State) error) (State, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()
	return f.update(ctx, fn)
}

func (f *Form) State(ctx context.Context) (State, error) {
	s, err := f.o.store.Load(ctx, f.id)
	if err != nil {
		return State{}, err
	}
	if s.OwnerUID != f.owner {
		return State{}, ErrDraftNotFound
	}
	return s, nil
}

func (f *Form) Discard(ctx context.Context) error {
	if _, err := f.State(ctx); err != nil {
		return err
	}
	return f.o.store.Delete(ctx, f.id)
}

// HandleFileSelected uploads an image and appends it to the draft once the
// upload completes. Images appear in completion order.
func (f *Form) HandleFileSelected(ctx context.Context, file File) (State, error) {
	if file.ContentType != "image/jpeg" && file.ContentType != "image/png" {
		f.notify.Alert("Send a JPEG or PNG image!")
		return State{}, ErrUnsupportedImageType
	}

	if _, err := f.update(ctx, func(s *State) error {
		s.Pending++
		s.Phase = PhaseUploading
		return nil
	}); err != nil {
		return State{}, err
	}

	name := uuid.NewString()
	ref := domain.ImageRef{Name: name}
	putErr := f.o.objects.Put(ctx, ref.ObjectKey(), file.Body, file.ContentType)

	s, err := f.settle(ctx, func(s *State) error {
		s.Pending--
		if s.Pending <= 0 {
			s.Pending = 0
			s.Phase = PhaseIdle
		}
		if putErr != nil {
			return nil
		}
		url := storage.PublicURL(f.o.publicURL, name)
		s.Images = append(s.Images, Image{Name: name, PreviewURL: url, URL: url})
		return nil
	})
	if err != nil {
		if putErr == nil {
			f.dropObject(ctx, ref.ObjectKey())
		}
		return State{}, err
	}

	if putErr != nil {
		f.o.logger.Error("Image upload failed", zap.Error(putErr), zap.String("draft_id", f.id))
		f.notify.Error("Failed to upload the image.")
		return s, fmt.Errorf("failed to upload image: %w", putErr)
	}

	f.notify.Success("Image uploaded successfully!")
	return s, nil
}

// dropObject removes an uploaded object the draft no longer records.
func (f *Form) dropObject(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()
	if err := f.o.objects.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		f.o.logger.Warn("Orphaned image left in store", zap.Error(err), zap.String("key", key))
	}
}

// HandleDeleteImage removes the image from the object store and then from
// the draft. A failed delete keeps the image in the draft.
func (f *Form) HandleDeleteImage(ctx context.Context, name string) (State, error) {
	s, err := f.State(ctx)
	if err != nil {
		return State{}, err
	}
	i := s.indexOfName(name)
	if i < 0 {
		return State{}, ErrImageNotFound
	}
	target := s.Images[i]

	ref := domain.ImageRef{Name: target.Name}
	if err := f.o.objects.Delete(ctx, ref.ObjectKey()); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		f.o.logger.Error("Image delete failed", zap.Error(err), zap.String("draft_id", f.id))
		f.notify.Error("Failed to delete the image.")
		return s, fmt.Errorf("failed to delete image: %w", err)
	}

	return f.update(ctx, func(s *State) error {
		s.removeByURL(target.URL)
		return nil
	})
}

// KeyPrice feeds the full text of the price field after a keystroke.
func (f *Form) KeyPrice(ctx context.Context, raw string) (State, error) {
	return f.update(ctx, func(s *State) error {
		ctrl := currencyinput.Restore(s.PriceInput, func(v string) { s.Price = v })
		ctrl.OnKeystroke(raw)
		s.PriceInput = ctrl.Snapshot()
		return nil
	})
}

var whatsAppMask = phonemask.NewMask(phonemask.WhatsApp)

// KeyWhatsApp masks the full text of the phone field. Letters are dropped
// and digits beyond the mask are ignored.
func (f *Form) KeyWhatsApp(ctx context.Context, raw string) (State, error) {
	return f.update(ctx, func(s *State) error {
		field := whatsAppMask.NewField()
		field.Paste(raw)
		s.Fields.WhatsApp = field.Value()
		return nil
	})
}

// FocusPrice shows the zero baseline in an empty price field.
func (f *Form) FocusPrice(ctx context.Context) (State, error) {
	return f.update(ctx, func(s *State) error {
		ctrl := currencyinput.Restore(s.PriceInput, nil)
		ctrl.OnFocus()
		s.PriceInput = ctrl.Snapshot()
		return nil
	})
}

// Submit validates the draft and writes the listing. Field errors come back
// as *ValidationError. Rule failures produce one error notification and no
// write. On success the draft is reset and the admin is sent to the
// dashboard; on failure the draft is kept as it was.
func (f *Form) Submit(ctx context.Context, fields Fields) (State, error) {
	if err := f.o.validate.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return State{}, &ValidationError{Cause: err}
		}
		return State{}, err
	}

	var listing *domain.Listing
	var ruleErr error
	s, err := f.update(ctx, func(s *State) error {
		if s.Phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}
		amount, err := checkRules(s)
		if err != nil {
			ruleErr = err
			return err
		}
		s.Fields = fields
		s.Phase = PhaseSubmitting
		listing = compose(s, amount)
		return nil
	})
	if err != nil {
		if ruleErr != nil {
			f.notify.Error(ruleMessages[ruleErr])
		}
		return s, err
	}

	if s.Mode == ModeEdit {
		err = f.o.listings.Update(ctx, listing)
	} else {
		err = f.o.listings.Create(ctx, listing)
	}

	if err != nil {
		f.o.logger.Error("Listing write failed", zap.Error(err), zap.String("draft_id", f.id))
		s, uerr := f.settle(ctx, func(s *State) error {
			s.Phase = PhaseFailed
			return nil
		})
		if uerr != nil {
			f.o.logger.Error("Failed to record submit failure", zap.Error(uerr))
		}
		f.notify.Error("Failed to save the vehicle.")
		return s, fmt.Errorf("failed to save listing: %w", err)
	}

	mode := s.Mode
	s, err = f.settle(ctx, func(s *State) error {
		s.reset()
		return nil
	})
	if err != nil {
		return State{}, err
	}

	if mode == ModeEdit {
		f.notify.Success("Vehicle updated successfully!")
	} else {
		f.notify.Success("Vehicle registered successfully!")
	}
	f.nav.Navigate("/dashboard")
	return s, nil
}

// checkRules applies the submit rules in order and returns the price.
func checkRules(s *State) (money.Amount, error) {
	if s.PriceInput.Error == currencyinput.ErrPriceTooLarge.Error() {
		return 0, currencyinput.ErrPriceTooLarge
	}
	if s.Price == "" {
		return 0, currencyinput.ErrPriceRequired
	}
	amount, err := money.ParseDigits(s.Price)
	if err != nil {
		if errors.Is(err, money.ErrTooLarge) {
			return 0, currencyinput.ErrPriceTooLarge
		}
		return 0, currencyinput.ErrPriceRequired
	}
	if amount == 0 {
		return 0, currencyinput.ErrPriceZero
	}
	if len(s.Images) == 0 {
		return 0, ErrNoImages
	}
	if s.Pending > 0 {
		return 0, ErrUploadsPending
	}
	return amount, nil
}

func compose(s *State, amount money.Amount) *domain.Listing {
	images := make([]domain.ImageRef, 0, len(s.Images))
	for _, img := range s.Images {
		images = append(images, domain.ImageRef{Name: img.Name, URL: img.URL})
	}
	return &domain.Listing{
		ID:          s.ListingID,
		Name:        domain.NormalizeName(s.Fields.Name),
		Model:       s.Fields.Model,
		Color:       s.Fields.Color,
		Year:        s.Fields.Year,
		Km:          s.Fields.Km,
		City:        s.Fields.City,
		WhatsApp:    s.Fields.WhatsApp,
		Description: s.Fields.Description,
		Featured:    s.Fields.Featured,
		Price:       amount,
		Images:      images,
		OwnerUID:    s.OwnerUID,
	}
}
