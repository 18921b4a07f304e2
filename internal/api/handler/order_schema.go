package handler

import (
	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

type orderItemRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"omitempty,min=1"`
}

type orderAddressRequest struct {
	Hostel string `json:"hostel"`
	Room   string `json:"room"`
}

type createOrderRequest struct {
	Items         []orderItemRequest  `json:"items"          validate:"required,min=1,dive"`
	Address       orderAddressRequest `json:"address"`
	PaymentStatus string              `json:"payment_status" validate:"omitempty,oneof=pending completed failed"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress delivered"`
}

// orderStatusResponse reports a status update including any listings that
// could not be transitioned, so partial success is explicit.
type orderStatusResponse struct {
	Order       *domain.Order          `json:"order"`
	FailedItems []ports.ListingFailure `json:"failed_items,omitempty"`
}

type listOrdersResponse struct {
	Data []*domain.Order `json:"data"`
}
