package repository

import (
	"context"

	"nepkart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalogue data access.
type ProductRepository interface {
	// Filter retrieves products matching the filter, plus the total match count.
	Filter(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetBySlugs retrieves a product by its category and product slugs,
	// together with its variations and visible reviews.
	GetBySlugs(ctx context.Context, categorySlug, productSlug string) (*model.ProductDetail, error)

	// DecrementStock atomically decrements a product's stock within the
	// provided transaction. It fails with model.ErrInsufficientStock when
	// the remaining stock does not cover the quantity; stock never goes
	// negative.
	DecrementStock(ctx context.Context, tx pgx.Tx, productID int64, quantity int) error

	// UpsertReview creates a review, or updates the owner's existing review
	// of the same product.
	UpsertReview(ctx context.Context, review *model.Review) error

	// ListReviews retrieves the visible reviews of a product.
	ListReviews(ctx context.Context, productID int64) ([]model.Review, error)
}

// CartRepository defines the interface for cart line-item data access.
type CartRepository interface {
	// ListByOwner retrieves the owner's cart items with their products and
	// selected variation ids.
	ListByOwner(ctx context.Context, ownerID int64) ([]model.CartItem, error)

	// AddItem inserts a cart line item and its variation selections.
	AddItem(ctx context.Context, item *model.CartItem) error

	// RemoveItem deletes one of the owner's cart items.
	RemoveItem(ctx context.Context, ownerID int64, itemID uuid.UUID) error

	// DeleteByOwner removes every cart item of the owner within the
	// provided transaction.
	DeleteByOwner(ctx context.Context, tx pgx.Tx, ownerID int64) error
}

// OrderRepository defines the interface for order, payment and receipt-line
// data access.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new pending order within the provided
	// transaction and fills in its assigned ID.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// SetOrderNumber persists the externally visible order number within
	// the provided transaction.
	SetOrderNumber(ctx context.Context, tx pgx.Tx, orderID int64, orderNumber string) error

	// GetByNumber retrieves an order by its order number, in any state.
	// Returns nil when no such order exists.
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error)

	// GetPendingByNumber retrieves an order by its order number where
	// is_ordered is still false. Returns nil when absent.
	GetPendingByNumber(ctx context.Context, orderNumber string) (*model.Order, error)

	// GetByNumberForUpdate retrieves an order by number within the provided
	// transaction, locking the row until commit.
	GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Order, error)

	// CreatePayment inserts a payment within the provided transaction.
	CreatePayment(ctx context.Context, tx pgx.Tx, payment *model.Payment) error

	// MarkCompleted links the payment to the order and flips it to the
	// completed state within the provided transaction.
	MarkCompleted(ctx context.Context, tx pgx.Tx, orderID int64, paymentID uuid.UUID) error

	// CreateOrderProducts inserts receipt lines and their variation
	// selections within the provided transaction.
	CreateOrderProducts(ctx context.Context, tx pgx.Tx, products []model.OrderProduct) error

	// ListOrderProducts retrieves the receipt lines of an order.
	ListOrderProducts(ctx context.Context, orderID int64) ([]model.OrderProduct, error)

	// GetPayment retrieves a payment by its internal ID. Returns nil when
	// absent.
	GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error)

	// ListPurchaseHistory retrieves every (order, product) pair from the
	// receipt lines, the transaction table of the recommendation miner.
	ListPurchaseHistory(ctx context.Context) ([]model.PurchaseRecord, error)
}
