package ports

import (
	"context"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error)
	ListAvailable(ctx context.Context) ([]*domain.Listing, error)

	// UpdateStatus performs a conditional write: the transition applies only
	// when the stored status is one of from, so a read-then-transition cannot
	// interleave with a concurrent writer. The availability flag is
	// recomputed from the new status as part of the same write. Returns
	// domain.ErrConflict when the listing exists but the precondition failed,
	// domain.ErrListingNotFound when it does not exist.
	UpdateStatus(ctx context.Context, id string, from []domain.ListingStatus, to domain.ListingStatus, reservedFor string) (*domain.Listing, error)

	IncrementViews(ctx context.Context, id string) error
}
