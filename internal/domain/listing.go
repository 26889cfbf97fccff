package domain

import (
	"strings"
	"time"

	"car-showroom/internal/money"
)

// FeaturedFlag marks a listing promoted on the homepage ("destaque").
type FeaturedFlag string

const (
	Featured    FeaturedFlag = "S"
	NotFeatured FeaturedFlag = "N"
)

// ImageKeyPrefix is the object store prefix under which listing images live.
const ImageKeyPrefix = "images/"

// ImageRef points at one uploaded image of a listing
type ImageRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ObjectKey returns the object store key of the image.
func (i ImageRef) ObjectKey() string {
	return ImageKeyPrefix + i.Name
}

// Listing is one vehicle for sale, as written by the admin area.
type Listing struct {
	ID          string
	Name        string
	Model       string
	Color       string
	Year        string
	Km          string
	City        string
	WhatsApp    string
	Description string
	Featured    FeaturedFlag
	Price       money.Amount
	Images      []ImageRef
	OwnerUID    string
	CreatedAt   time.Time
}

// NormalizeName upper-cases the listing name the way it is stored, which is
// what makes prefix search case-insensitive.
func NormalizeName(name string) string {
	return strings.ToUpper(name)
}

// ListingDocument is a listing as read back from the store. A nil field was
// never written for that document.
type ListingDocument struct {
	ID          string
	Name        *string
	Model       *string
	Color       *string
	Year        *string
	Km          *string
	City        *string
	WhatsApp    *string
	Description *string
	Featured    *string
	Price       *money.Amount
	Images      []ImageRef
	OwnerUID    *string
	Created     *time.Time
}
