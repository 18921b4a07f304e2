package domain

import (
	"errors"
	"time"
)

// ListingStatus represents the lifecycle state of a sellable item.
type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingReserved ListingStatus = "reserved"
	ListingSold     ListingStatus = "sold"
	ListingInactive ListingStatus = "inactive"
)

// listingTransitions defines the allowed state machine transitions.
// Sold is terminal for the ordinary sale flow.
var listingTransitions = map[ListingStatus][]ListingStatus{
	ListingActive:   {ListingReserved, ListingSold, ListingInactive},
	ListingReserved: {ListingActive, ListingSold, ListingInactive},
	ListingInactive: {ListingActive},
}

var ErrListingNotFound = errors.New("listing not found")
var ErrListingUnavailable = errors.New("listing not available")
var ErrInvalidTransition = errors.New("invalid status transition")
var ErrConflict = errors.New("concurrent update conflict")

// CanTransitionTo reports whether a transition from s to next is valid.
func (s ListingStatus) CanTransitionTo(next ListingStatus) bool {
	for _, allowed := range listingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Available reports whether the status counts as sellable. IsAvailable on a
// listing is always derived from this, never set independently.
func (s ListingStatus) Available() bool {
	return s == ListingActive || s == ListingReserved
}

// Listing is an item offered for sale. Listings are never deleted, only
// deactivated.
type Listing struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Price       float64       `json:"price"`
	Status      ListingStatus `json:"status"`
	IsAvailable bool          `json:"is_available"`
	ReservedFor string        `json:"reserved_for,omitempty"`
	Views       int64         `json:"views"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// SetStatus applies a status and recomputes the derived availability flag.
func (l *Listing) SetStatus(next ListingStatus) {
	l.Status = next
	l.IsAvailable = next.Available()
}
