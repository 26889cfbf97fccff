package service

import (
	"context"
	"errors"
	"fmt"

	"car-showroom/internal/cache"
	"car-showroom/internal/domain"
	"car-showroom/internal/repository"

	"go.uber.org/zap"
)

// DeleteResult reports what a listing delete left behind.
type DeleteResult struct {
	ListingID      string   `json:"listing_id"`
	OrphanedImages []string `json:"orphaned_images,omitempty"`
}

// ListingService writes listings
type ListingService interface {
	Create(ctx context.Context, listing *domain.Listing) error
	Update(ctx context.Context, listing *domain.Listing) error
	Delete(ctx context.Context, id string) (*DeleteResult, error)
}

type listingService struct {
	repo    repository.ListingRepository
	cache   JSONCache
	janitor ImageJanitor
	logger  *zap.Logger
}

// NewListingService creates a new instance of ListingService. cache may be nil.
func NewListingService(repo repository.ListingRepository, cache JSONCache, janitor ImageJanitor, logger *zap.Logger) ListingService {
	return &listingService{repo: repo, cache: cache, janitor: janitor, logger: logger}
}

// Create stores a new listing; the store assigns its id and creation time.
func (s *listingService) Create(ctx context.Context, listing *domain.Listing) error {
	listing.Name = domain.NormalizeName(listing.Name)
	if err := s.repo.Create(ctx, listing); err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("Listing created", zap.String("listing_id", listing.ID))
	return nil
}

// Update overwrites an existing listing. Its creation time is kept.
func (s *listingService) Update(ctx context.Context, listing *domain.Listing) error {
	listing.Name = domain.NormalizeName(listing.Name)
	if err := s.repo.Update(ctx, listing); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("failed to update listing: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("Listing updated", zap.String("listing_id", listing.ID))
	return nil
}

// Delete removes the listing document and then its images.
func (s *listingService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to delete listing: %w", err)
	}
	s.invalidate(ctx)

	keys := make([]string, 0, len(doc.Images))
	for _, img := range doc.Images {
		keys = append(keys, img.ObjectKey())
	}

	result := &DeleteResult{ListingID: id}
	orphaned, err := s.janitor.Cleanup(ctx, id, keys)
	if err != nil {
		s.logger.Error("Image cleanup failed", zap.Error(err), zap.String("listing_id", id))
	}
	result.OrphanedImages = orphaned

	s.logger.Info("Listing deleted",
		zap.String("listing_id", id),
		zap.Int("images", len(keys)),
		zap.Int("orphaned", len(orphaned)),
	)
	return result, nil
}

func (s *listingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.KeyFeaturedListings); err != nil {
		s.logger.Warn("Featured cache invalidation failed", zap.Error(err))
	}
}
