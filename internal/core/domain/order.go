package domain

import (
	"errors"
	"time"
)

// PaymentStatus is a settlement label, not a gateway-backed transaction state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// IsValidPaymentStatus reports whether s is a known payment status.
func IsValidPaymentStatus(s PaymentStatus) bool {
	return s == PaymentPending || s == PaymentCompleted || s == PaymentFailed
}

// DeliveryStatus tracks the fulfilment of an order.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliveryInProgress DeliveryStatus = "in_progress"
	DeliveryDelivered  DeliveryStatus = "delivered"
)

// IsValidDeliveryStatus reports whether s is a known delivery status.
func IsValidDeliveryStatus(s DeliveryStatus) bool {
	return s == DeliveryPending || s == DeliveryInProgress || s == DeliveryDelivered
}

var ErrOrderNotFound = errors.New("order not found")
var ErrEmptyOrder = errors.New("order has no items")
var ErrSelfPurchase = errors.New("cannot buy your own listing")
var ErrMixedSellerOrder = errors.New("all order items must belong to the same seller")

// OrderItem snapshots one listing at purchase time. Price is copied, not
// referenced, so later price edits never change historical orders.
type OrderItem struct {
	ListingID string  `json:"listing_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// DeliveryAddress is the on-campus drop point for an order.
type DeliveryAddress struct {
	Hostel string `json:"hostel,omitempty"`
	Room   string `json:"room,omitempty"`
}

// Order records a purchase between one buyer and one seller.
// TotalAmount equals the sum of item price times quantity, computed once at
// creation and immutable afterwards.
type Order struct {
	ID             string          `json:"id"`
	BuyerID        string          `json:"buyer_id"`
	SellerID       string          `json:"seller_id"`
	Items          []OrderItem     `json:"items"`
	TotalAmount    float64         `json:"total_amount"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	DeliveryStatus DeliveryStatus  `json:"delivery_status"`
	Address        DeliveryAddress `json:"address,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
