package service

import (
	"context"
	"encoding/json"

	"nepkart/internal/model"

	"github.com/google/uuid"
)

// CatalogService defines catalogue browsing and review operations.
type CatalogService interface {
	// Filter retrieves a paginated, filtered product listing.
	Filter(ctx context.Context, f model.ProductFilter) (*model.ProductListing, error)

	// GetDetail retrieves one product by category and product slug, with
	// variations and reviews.
	GetDetail(ctx context.Context, categorySlug, productSlug string) (*model.ProductDetail, error)

	// SubmitReview creates or updates the owner's review of a product.
	SubmitReview(ctx context.Context, ownerID, productID int64, req *model.ReviewRequest, ip string) (*model.Review, error)
}

// CartService defines cart operations.
type CartService interface {
	// GetCart retrieves the owner's cart with running totals.
	GetCart(ctx context.Context, ownerID int64) (*model.Cart, error)

	// AddItem adds a line item to the owner's cart.
	AddItem(ctx context.Context, ownerID int64, req *model.CartItemRequest) (*model.CartItem, error)

	// RemoveItem deletes one of the owner's cart items.
	RemoveItem(ctx context.Context, ownerID int64, itemID uuid.UUID) error
}

// OrderService defines checkout and fulfillment operations.
type OrderService interface {
	// PlaceOrder creates a pending order from the owner's cart and the
	// shipping form. An empty cart yields model.ErrCartEmpty; an invalid
	// form yields *model.ValidationError and no order row.
	PlaceOrder(ctx context.Context, ownerID int64, form *model.ShippingForm, ip string) (*model.OrderPlacement, error)

	// CompleteOrder settles a pending order after a gateway callback:
	// payment record, receipt lines, stock decrement, cart cleanup.
	// Replaying the same order number is a no-op returning the persisted
	// receipt.
	CompleteOrder(ctx context.Context, req *model.CompletionRequest) (*model.OrderReceipt, error)
}

// PaymentService defines the payment-initiation operation.
type PaymentService interface {
	// InitiatePayment starts a gateway payment for a pending order and
	// returns the gateway's raw JSON response.
	InitiatePayment(ctx context.Context, orderNumber string, amountMinor int64) (json.RawMessage, error)
}

// ConfirmationSender sends the post-fulfillment notification. Satisfied by
// *mailer.Mailer.
type ConfirmationSender interface {
	SendOrderConfirmation(ctx context.Context, order *model.Order) error
}

// EventPublisher emits domain events. Satisfied by events.Publisher.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}
