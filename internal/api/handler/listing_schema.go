package handler

import "github.com/campuskart/marketplace-api/internal/core/domain"

type createListingRequest struct {
	Title       string  `json:"title"       validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price"       validate:"required,gt=0"`
}

type reserveListingRequest struct {
	BuyerID string `json:"buyer_id"`
}

type listListingsResponse struct {
	Data []*domain.Listing `json:"data"`
}
