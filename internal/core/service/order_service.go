package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

// OrderService drives a purchase from placement to settlement. Listing state
// is only ever changed through the listing service, never written directly.
type OrderService struct {
	orders    ports.OrderRepository
	listings  ports.ListingRepository
	lifecycle ports.ListingService
	activity  ports.ActivityRecorder
	log       zerolog.Logger
}

func NewOrderService(orders ports.OrderRepository, listings ports.ListingRepository, lifecycle ports.ListingService, activity ports.ActivityRecorder, log zerolog.Logger) *OrderService {
	return &OrderService{orders: orders, listings: listings, lifecycle: lifecycle, activity: activity, log: log}
}

// CreateOrder validates every requested item against live listing state,
// snapshots current prices, and persists the order with pending statuses.
//
// Placement deliberately leaves listings active: several buyers may hold
// pending orders on the same listing until the seller fulfils one, at which
// point the delivered cascade settles the race through the listing state
// machine's conditional write.
func (s *OrderService) CreateOrder(ctx context.Context, buyer ports.Principal, in ports.CreateOrderInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	var (
		sellerID string
		items    = make([]domain.OrderItem, 0, len(in.Items))
		total    float64
	)
	for _, item := range in.Items {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 0 || item.ListingID == "" {
			return nil, domain.ErrValidation
		}

		listing, err := s.listings.FindByID(ctx, item.ListingID)
		if err != nil {
			return nil, err
		}
		if listing.Status != domain.ListingActive {
			return nil, domain.ErrListingUnavailable
		}
		if listing.OwnerID == buyer.ID {
			return nil, domain.ErrSelfPurchase
		}

		// Single-seller invariant: the seller is derived from the items and
		// mixed baskets are rejected outright rather than silently
		// attributed to the first item's owner.
		if sellerID == "" {
			sellerID = listing.OwnerID
		} else if sellerID != listing.OwnerID {
			return nil, domain.ErrMixedSellerOrder
		}

		items = append(items, domain.OrderItem{
			ListingID: listing.ID,
			Quantity:  quantity,
			Price:     listing.Price,
		})
		total += listing.Price * float64(quantity)
	}

	payment := domain.PaymentPending
	if in.InitialPaymentStatus != "" {
		if !domain.IsValidPaymentStatus(in.InitialPaymentStatus) {
			return nil, domain.ErrValidation
		}
		payment = in.InitialPaymentStatus
	}

	now := time.Now().UTC()
	order := &domain.Order{
		BuyerID:        buyer.ID,
		SellerID:       sellerID,
		Items:          items,
		TotalAmount:    total,
		PaymentStatus:  payment,
		DeliveryStatus: domain.DeliveryPending,
		Address:        in.Address,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		s.log.Error().Err(err).Str("buyer_id", buyer.ID).Msg("failed to create order")
		return nil, err
	}

	s.activity.Record(domain.ActivityEntry{
		ActorID:     buyer.ID,
		Action:      domain.ActivityOrderCreated,
		SubjectType: "order",
		SubjectID:   created.ID,
		Timestamp:   now,
	})
	s.log.Info().Str("order_id", created.ID).Str("buyer_id", buyer.ID).Str("seller_id", sellerID).Float64("total", total).Msg("order created")
	return created, nil
}

// UpdateStatus is restricted to the order's seller or an admin. A delivered
// status completes payment and transitions every item's listing to sold.
// Listing transitions are attempted independently; failures are collected in
// the result rather than rolling back the order update.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, actor ports.Principal, newStatus domain.DeliveryStatus) (*ports.StatusUpdateResult, error) {
	if !domain.IsValidDeliveryStatus(newStatus) {
		return nil, domain.ErrValidation
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != actor.ID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	payment := order.PaymentStatus
	if newStatus == domain.DeliveryDelivered {
		payment = domain.PaymentCompleted
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, newStatus, payment)
	if err != nil {
		return nil, err
	}

	var failed []ports.ListingFailure
	if newStatus == domain.DeliveryDelivered {
		for _, item := range order.Items {
			if _, err := s.lifecycle.MarkSold(ctx, item.ListingID, actor); err != nil {
				s.log.Error().Err(err).Str("order_id", orderID).Str("listing_id", item.ListingID).Msg("listing not marked sold after delivery")
				failed = append(failed, ports.ListingFailure{ListingID: item.ListingID, Reason: err.Error()})
			}
		}
	}

	s.activity.Record(domain.ActivityEntry{
		ActorID:     actor.ID,
		Action:      domain.ActivityOrderStatus,
		SubjectType: "order",
		SubjectID:   orderID,
		Metadata:    map[string]string{"delivery_status": string(newStatus)},
		Timestamp:   time.Now().UTC(),
	})
	return &ports.StatusUpdateResult{Order: updated, Failed: failed}, nil
}

// GetByID is visible to the order's buyer, seller, or an admin only.
func (s *OrderService) GetByID(ctx context.Context, orderID string, actor ports.Principal) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actor.ID && order.SellerID != actor.ID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *OrderService) MyOrders(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

func (s *OrderService) MySales(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return s.orders.ListBySeller(ctx, sellerID)
}
