package ports

import (
	"context"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

// OrderRepository defines persistence operations for orders.
// Orders are never deleted.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, delivery domain.DeliveryStatus, payment domain.PaymentStatus) (*domain.Order, error)
}
