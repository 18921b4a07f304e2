package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/marketplace-api/internal/api/metrics"
	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

// OrderHandler handles order placement and fulfilment endpoints.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create places a new order for the caller.
//
// @Summary      Place an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrderRequest  true  "Order items"
// @Success      201   {object}  domain.Order
// @Failure      400   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	items := make([]ports.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ports.OrderItemInput{ListingID: item.ListingID, Quantity: item.Quantity})
	}

	order, err := h.service.CreateOrder(c.Request().Context(), principal, ports.CreateOrderInput{
		Items:                items,
		Address:              domain.DeliveryAddress{Hostel: req.Address.Hostel, Room: req.Address.Room},
		InitialPaymentStatus: domain.PaymentStatus(req.PaymentStatus),
	})
	if err != nil {
		return err
	}

	metrics.OrdersCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, order)
}

// UpdateStatus drives an order's delivery transition. A delivered order
// completes payment and cascades its listings to sold; listings that could
// not transition are reported in failed_items alongside the updated order.
//
// @Summary      Update order delivery status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Order id"
// @Param        body  body      updateOrderStatusRequest  true  "New delivery status"
// @Success      200   {object}  orderStatusResponse
// @Failure      403   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.service.UpdateStatus(c.Request().Context(), c.Param("id"), principal, domain.DeliveryStatus(req.Status))
	if err != nil {
		return err
	}

	metrics.OrderStatusUpdatesTotal.WithLabelValues(req.Status).Inc()
	return c.JSON(http.StatusOK, orderStatusResponse{Order: result.Order, FailedItems: result.Failed})
}

// Get serves a single order to its buyer, seller, or an admin.
func (h *OrderHandler) Get(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	order, err := h.service.GetByID(c.Request().Context(), c.Param("id"), principal)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// Mine returns the caller's orders as a buyer.
func (h *OrderHandler) Mine(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	orders, err := h.service.MyOrders(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listOrdersResponse{Data: orders})
}

// Sales returns the caller's orders as a seller.
func (h *OrderHandler) Sales(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	orders, err := h.service.MySales(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listOrdersResponse{Data: orders})
}
