package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

// ViewTracker abstracts the per-viewer deduplication store (Redis).
type ViewTracker interface {
	// FirstView reports whether this viewer has not seen the listing within
	// the tracking window, marking it seen as a side effect.
	FirstView(ctx context.Context, listingID, viewerKey string) (bool, error)
}

// ListingService owns the listing lifecycle state machine.
type ListingService struct {
	repo     ports.ListingRepository
	views    ViewTracker
	activity ports.ActivityRecorder
	log      zerolog.Logger
}

func NewListingService(repo ports.ListingRepository, views ViewTracker, activity ports.ActivityRecorder, log zerolog.Logger) *ListingService {
	return &ListingService{repo: repo, views: views, activity: activity, log: log}
}

// Create publishes a new active listing.
func (s *ListingService) Create(ctx context.Context, in ports.CreateListingInput) (*domain.Listing, error) {
	if in.OwnerID == "" || in.Title == "" || in.Price <= 0 {
		return nil, domain.ErrValidation
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	listing.SetStatus(domain.ListingActive)

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		s.log.Error().Err(err).Str("owner_id", in.OwnerID).Msg("failed to create listing")
		return nil, err
	}

	s.log.Info().Str("listing_id", created.ID).Str("owner_id", created.OwnerID).Msg("listing created")
	return created, nil
}

// GetByID returns the listing. A non-empty viewerKey counts a view once per
// viewer per tracking window; view accounting is best effort and never fails
// the read.
func (s *ListingService) GetByID(ctx context.Context, id, viewerKey string) (*domain.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if viewerKey != "" && s.views != nil {
		first, err := s.views.FirstView(ctx, id, viewerKey)
		if err != nil {
			s.log.Warn().Err(err).Str("listing_id", id).Msg("view dedup check failed")
		} else if first {
			if err := s.repo.IncrementViews(ctx, id); err != nil {
				s.log.Warn().Err(err).Str("listing_id", id).Msg("failed to count view")
			} else {
				listing.Views++
			}
		}
	}
	return listing, nil
}

// Browse returns the listings currently available to buyers.
func (s *ListingService) Browse(ctx context.Context) ([]*domain.Listing, error) {
	return s.repo.ListAvailable(ctx)
}

func (s *ListingService) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Activate returns a withdrawn listing to the sellable state.
func (s *ListingService) Activate(ctx context.Context, id string, actor ports.Principal) (*domain.Listing, error) {
	return s.transition(ctx, id, actor, domain.ListingActive, "")
}

// Deactivate withdraws a listing without deleting it.
func (s *ListingService) Deactivate(ctx context.Context, id string, actor ports.Principal) (*domain.Listing, error) {
	return s.transition(ctx, id, actor, domain.ListingInactive, "")
}

// Reserve holds a listing for a specific buyer; the listing stays available.
func (s *ListingService) Reserve(ctx context.Context, id, buyerID string, actor ports.Principal) (*domain.Listing, error) {
	return s.transition(ctx, id, actor, domain.ListingReserved, buyerID)
}

// MarkSold finalises a sale. Marking an already sold listing is a no-op
// success so the delivered-order cascade can be retried safely.
func (s *ListingService) MarkSold(ctx context.Context, id string, actor ports.Principal) (*domain.Listing, error) {
	return s.transition(ctx, id, actor, domain.ListingSold, "")
}

// transition enforces ownership and the state machine, then applies the
// change with a conditional write so a concurrent writer cannot interleave
// between the read and the update. The loser of a race observes either a
// settled no-op (already at the target status) or ErrConflict.
func (s *ListingService) transition(ctx context.Context, id string, actor ports.Principal, to domain.ListingStatus, reservedFor string) (*domain.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if listing.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if listing.Status == to {
		return listing, nil
	}
	if !listing.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, []domain.ListingStatus{listing.Status}, to, reservedFor)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			current, ferr := s.repo.FindByID(ctx, id)
			if ferr == nil && current.Status == to {
				return current, nil
			}
		}
		return nil, err
	}

	s.activity.Record(domain.ActivityEntry{
		ActorID:     actor.ID,
		Action:      domain.ActivityListingStatus,
		SubjectType: "listing",
		SubjectID:   id,
		Metadata:    map[string]string{"status": string(to)},
		Timestamp:   time.Now().UTC(),
	})
	s.log.Info().Str("listing_id", id).Str("status", string(to)).Msg("listing status changed")
	return updated, nil
}
