package ports

import (
	"context"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

// CreateListingInput carries the data needed to publish a listing.
type CreateListingInput struct {
	OwnerID     string
	Title       string
	Description string
	Price       float64
}

// ListingService owns the listing lifecycle. All status changes go through
// these operations; nothing else writes the status or availability fields.
type ListingService interface {
	Create(ctx context.Context, in CreateListingInput) (*domain.Listing, error)
	// GetByID returns the listing and, when viewerKey is non-empty, counts a
	// view once per viewer per tracking window.
	GetByID(ctx context.Context, id, viewerKey string) (*domain.Listing, error)
	// Browse returns the listings currently available to buyers.
	Browse(ctx context.Context) ([]*domain.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error)

	// Transitions validate owner-or-admin and the state machine. A
	// transition to the current status is a no-op success, so the delivered
	// cascade stays re-entrant.
	Activate(ctx context.Context, id string, actor Principal) (*domain.Listing, error)
	Deactivate(ctx context.Context, id string, actor Principal) (*domain.Listing, error)
	Reserve(ctx context.Context, id, buyerID string, actor Principal) (*domain.Listing, error)
	MarkSold(ctx context.Context, id string, actor Principal) (*domain.Listing, error)
}
