package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"car-showroom/internal/cache"
	"car-showroom/internal/domain"
	"car-showroom/internal/money"
	"car-showroom/internal/repository"

	"go.uber.org/zap"
)

var ErrListingNotFound = repository.ErrListingNotFound

// CarView is a listing as served to clients. Fields never written for the
// listing are omitted.
type CarView struct {
	ID          string            `json:"id"`
	Name        *string           `json:"name,omitempty"`
	Model       *string           `json:"model,omitempty"`
	Color       *string           `json:"color,omitempty"`
	Year        *string           `json:"year,omitempty"`
	Km          *string           `json:"km,omitempty"`
	City        *string           `json:"city,omitempty"`
	WhatsApp    *string           `json:"whatsapp,omitempty"`
	Description *string           `json:"description,omitempty"`
	Featured    *string           `json:"destaque,omitempty"`
	Price       *money.Amount     `json:"price,omitempty"`
	PriceLabel  string            `json:"price_label,omitempty"`
	Images      []domain.ImageRef `json:"images,omitempty"`
	OwnerUID    *string           `json:"uid,omitempty"`
	Created     *time.Time        `json:"created,omitempty"`
}

// NewCarView maps a stored document into its client view.
func NewCarView(doc *domain.ListingDocument) CarView {
	v := CarView{
		ID:          doc.ID,
		Name:        doc.Name,
		Model:       doc.Model,
		Color:       doc.Color,
		Year:        doc.Year,
		Km:          doc.Km,
		City:        doc.City,
		WhatsApp:    doc.WhatsApp,
		Description: doc.Description,
		Featured:    doc.Featured,
		Price:       doc.Price,
		Images:      doc.Images,
		OwnerUID:    doc.OwnerUID,
		Created:     doc.Created,
	}
	if doc.Price != nil {
		v.PriceLabel = money.Format(*doc.Price)
	}
	return v
}

// JSONCache is the subset of the Redis cache the services need.
type JSONCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

// ListingQueryService answers the catalog's read queries
type ListingQueryService interface {
	ListFeatured(ctx context.Context) ([]CarView, error)
	ListAll(ctx context.Context) ([]CarView, error)
	ListForDashboard(ctx context.Context) ([]CarView, error)
	SearchByNamePrefix(ctx context.Context, term string) ([]CarView, error)
	Get(ctx context.Context, id string) (*CarView, error)
}

type listingQueryService struct {
	repo   repository.ListingRepository
	cache  JSONCache
	logger *zap.Logger
}

// NewListingQueryService creates a new instance of ListingQueryService. cache
// may be nil, in which case featured listings are always read from the store.
func NewListingQueryService(repo repository.ListingRepository, cache JSONCache, logger *zap.Logger) ListingQueryService {
	return &listingQueryService{repo: repo, cache: cache, logger: logger}
}

// ListFeatured returns the featured listings, newest first.
func (s *listingQueryService) ListFeatured(ctx context.Context) ([]CarView, error) {
	if s.cache != nil {
		var cached []CarView
		hit, err := s.cache.Get(ctx, cache.KeyFeaturedListings, &cached)
		if err != nil {
			s.logger.Warn("Featured cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	views, err := s.list(ctx, repository.ListingQuery{FeaturedOnly: true, OrderByCreated: true})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.KeyFeaturedListings, views); err != nil {
			s.logger.Warn("Featured cache write failed", zap.Error(err))
		}
	}
	return views, nil
}

// ListAll returns every listing, newest first.
func (s *listingQueryService) ListAll(ctx context.Context) ([]CarView, error) {
	return s.list(ctx, repository.ListingQuery{OrderByCreated: true})
}

// ListForDashboard returns every listing in store order.
func (s *listingQueryService) ListForDashboard(ctx context.Context) ([]CarView, error) {
	return s.list(ctx, repository.ListingQuery{})
}

// SearchByNamePrefix returns the listings whose stored name starts with the
// upper-cased term. A blank term lists everything.
func (s *listingQueryService) SearchByNamePrefix(ctx context.Context, term string) ([]CarView, error) {
	if strings.TrimSpace(term) == "" {
		return s.ListAll(ctx)
	}
	return s.list(ctx, repository.ListingQuery{NamePrefix: domain.NormalizeName(term)})
}

func (s *listingQueryService) Get(ctx context.Context, id string) (*CarView, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	v := NewCarView(doc)
	return &v, nil
}

func (s *listingQueryService) list(ctx context.Context, q repository.ListingQuery) ([]CarView, error) {
	docs, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	views := make([]CarView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, NewCarView(doc))
	}
	return views, nil
}
