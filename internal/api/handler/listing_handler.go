package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/marketplace-api/internal/api/metrics"
	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

// ListingHandler handles listing CRUD and lifecycle endpoints.
type ListingHandler struct {
	service ports.ListingService
}

func NewListingHandler(service ports.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// Create publishes a new listing owned by the caller.
//
// @Summary      Create a listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createListingRequest  true  "Listing details"
// @Success      201   {object}  domain.Listing
// @Failure      400   {object}  errorEnvelope
// @Router       /listings [post]
func (h *ListingHandler) Create(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	listing, err := h.service.Create(c.Request().Context(), ports.CreateListingInput{
		OwnerID:     principal.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, listing)
}

// Browse serves the public catalogue of available listings.
//
// @Summary      Browse available listings
// @Tags         listings
// @Produce      json
// @Success      200  {object}  listListingsResponse
// @Router       /listings [get]
func (h *ListingHandler) Browse(c echo.Context) error {
	listings, err := h.service.Browse(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listListingsResponse{Data: listings})
}

// Get serves a single listing. The route runs under OptionalAuth: a view is
// counted per viewer per tracking window, authenticated or not.
func (h *ListingHandler) Get(c echo.Context) error {
	listing, err := h.service.GetByID(c.Request().Context(), c.Param("id"), viewerKey(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}

// Mine returns the caller's own listings, sold and withdrawn included.
func (h *ListingHandler) Mine(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	listings, err := h.service.ListByOwner(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listListingsResponse{Data: listings})
}

// Activate returns a withdrawn listing to the sellable state.
func (h *ListingHandler) Activate(c echo.Context) error {
	return h.transition(c, func(principal ports.Principal) (*domain.Listing, error) {
		return h.service.Activate(c.Request().Context(), c.Param("id"), principal)
	}, domain.ListingActive)
}

// Deactivate withdraws a listing.
func (h *ListingHandler) Deactivate(c echo.Context) error {
	return h.transition(c, func(principal ports.Principal) (*domain.Listing, error) {
		return h.service.Deactivate(c.Request().Context(), c.Param("id"), principal)
	}, domain.ListingInactive)
}

// Reserve holds the listing for a specific buyer.
func (h *ListingHandler) Reserve(c echo.Context) error {
	var req reserveListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return h.transition(c, func(principal ports.Principal) (*domain.Listing, error) {
		return h.service.Reserve(c.Request().Context(), c.Param("id"), req.BuyerID, principal)
	}, domain.ListingReserved)
}

// MarkSold finalises a sale outside the order flow.
func (h *ListingHandler) MarkSold(c echo.Context) error {
	return h.transition(c, func(principal ports.Principal) (*domain.Listing, error) {
		return h.service.MarkSold(c.Request().Context(), c.Param("id"), principal)
	}, domain.ListingSold)
}

func (h *ListingHandler) transition(c echo.Context, op func(ports.Principal) (*domain.Listing, error), to domain.ListingStatus) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	listing, err := op(principal)
	if err != nil {
		return err
	}

	metrics.ListingTransitionsTotal.WithLabelValues(string(to)).Inc()
	return c.JSON(http.StatusOK, listing)
}
