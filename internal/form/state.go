// Package form drives the admin listing form: uploads, price entry and
// submission of one draft at a time.
package form

import (
	"time"

	"car-showroom/internal/currencyinput"
	"car-showroom/internal/domain"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseUploading  Phase = "uploading"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseFailed     Phase = "failed"
)

// Image is an uploaded image held by the form. PreviewURL is what the client
// renders while editing; URL is what gets stored with the listing.
type Image struct {
	Name       string `json:"name"`
	PreviewURL string `json:"preview_url"`
	URL        string `json:"url"`
}

// Fields are the free-text fields of the listing form.
type Fields struct {
	Name        string              `json:"name" validate:"required,max=120"`
	Model       string              `json:"model" validate:"required,max=120"`
	Year        string              `json:"year" validate:"required,max=20"`
	Km          string              `json:"km" validate:"required,max=20"`
	City        string              `json:"city" validate:"required,max=120"`
	Color       string              `json:"color" validate:"required,max=60"`
	WhatsApp    string              `json:"whatsapp" validate:"required,whatsapp"`
	Description string              `json:"description" validate:"required,max=5000"`
	Featured    domain.FeaturedFlag `json:"destaque" validate:"omitempty,oneof=S N"`
}

// State is everything a draft remembers between requests.
type State struct {
	ID         string              `json:"id"`
	Mode       Mode                `json:"mode"`
	ListingID  string              `json:"listing_id,omitempty"`
	OwnerUID   string              `json:"owner_uid"`
	Phase      Phase               `json:"phase"`
	Pending    int                 `json:"pending_uploads"`
	Fields     Fields              `json:"fields"`
	Price      string              `json:"price"`
	PriceInput currencyinput.State `json:"price_input"`
	Images     []Image             `json:"images"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func newState(id, owner string) State {
	return State{
		ID:       id,
		Mode:     ModeCreate,
		OwnerUID: owner,
		Phase:    PhaseIdle,
		Images:   []Image{},
	}
}

// reset clears the form after a successful submit. The draft keeps its
// identity and owner and starts over as a new listing.
func (s *State) reset() {
	*s = State{
		ID:       s.ID,
		Mode:     ModeCreate,
		OwnerUID: s.OwnerUID,
		Phase:    PhaseSuccess,
		Images:   []Image{},
	}
}

func (s *State) indexOfName(name string) int {
	for i, img := range s.Images {
		if img.Name == name {
			return i
		}
	}
	return -1
}

func (s *State) removeByURL(url string) {
	kept := s.Images[:0]
	for _, img := range s.Images {
		if img.URL != url {
			kept = append(kept, img)
		}
	}
	s.Images = kept
}
