package model

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a transient pre-purchase line item. The whole set for an owner
// is deleted once its order is fulfilled.
type CartItem struct {
	ID           uuid.UUID `json:"id" db:"id"`
	OwnerID      int64     `json:"ownerId" db:"owner_id"`
	ProductID    int64     `json:"productId" db:"product_id"`
	Quantity     int       `json:"quantity" db:"quantity"`
	VariationIDs []int64   `json:"variationIds"`
	Product      *Product  `json:"product,omitempty"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// CartItemRequest is the add-to-cart payload.
type CartItemRequest struct {
	ProductID    int64   `json:"productId"`
	Quantity     int     `json:"quantity"`
	VariationIDs []int64 `json:"variationIds,omitempty"`
}

// Cart is the owner's current cart with running totals.
type Cart struct {
	Items      []CartItem `json:"items"`
	Total      float64    `json:"total"`
	Tax        float64    `json:"tax"`
	GrandTotal float64    `json:"grandTotal"`
}
