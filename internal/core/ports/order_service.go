package ports

import (
	"context"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

// OrderItemInput is one requested line item.
type OrderItemInput struct {
	ListingID string
	Quantity  int
}

// CreateOrderInput carries an order request. InitialPaymentStatus is
// optional; it defaults to pending.
type CreateOrderInput struct {
	Items                []OrderItemInput
	Address              domain.DeliveryAddress
	InitialPaymentStatus domain.PaymentStatus
}

// ListingFailure reports one listing that could not be transitioned during
// the delivered cascade.
type ListingFailure struct {
	ListingID string `json:"listing_id"`
	Reason    string `json:"reason"`
}

// StatusUpdateResult is the outcome of an order status update. Failed is
// non-empty when the order update succeeded but one or more listing
// transitions did not.
type StatusUpdateResult struct {
	Order  *domain.Order
	Failed []ListingFailure
}

// OrderService drives a purchase from placement to settlement.
type OrderService interface {
	// CreateOrder validates every item against live listing state, snapshots
	// prices, and persists the order. It does not reserve or sell listings:
	// several pending orders may reference the same active listing until the
	// seller fulfils one.
	CreateOrder(ctx context.Context, buyer Principal, in CreateOrderInput) (*domain.Order, error)

	// UpdateStatus is restricted to the order's seller or an admin. A
	// delivered status completes payment and cascades each item's listing to
	// sold through the listing state machine, attempting every item
	// independently.
	UpdateStatus(ctx context.Context, orderID string, actor Principal, newStatus domain.DeliveryStatus) (*StatusUpdateResult, error)

	GetByID(ctx context.Context, orderID string, actor Principal) (*domain.Order, error)
	MyOrders(ctx context.Context, buyerID string) ([]*domain.Order, error)
	MySales(ctx context.Context, sellerID string) ([]*domain.Order, error)
}
