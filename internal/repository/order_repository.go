package repository

import (
	"context"
	"fmt"
	"time"

	"nepkart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `
	id, owner_id, order_number, first_name, last_name, phone, email,
	address_line_1, address_line_2, country, state, city, order_note,
	order_total, tax, status, ip, is_ordered, payment_id, created_at, updated_at
`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new pending order within the provided transaction
// and fills in its assigned ID.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			owner_id, order_number, first_name, last_name, phone, email,
			address_line_1, address_line_2, country, state, city, order_note,
			order_total, tax, status, ip, is_ordered, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
		RETURNING id
	`

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	err := tx.QueryRow(ctx, query,
		order.OwnerID, order.OrderNumber, order.FirstName, order.LastName, order.Phone, order.Email,
		order.AddressLine1, order.AddressLine2, order.Country, order.State, order.City, order.OrderNote,
		order.OrderTotal, order.Tax, order.Status, order.IP, order.IsOrdered, now,
	).Scan(&order.ID)
	if err != nil {
		r.logger.Error().Err(err).Int64("owner_id", order.OwnerID).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().Int64("order_id", order.ID).Msg("order created")

	return nil
}

// SetOrderNumber persists the externally visible order number.
func (r *orderRepository) SetOrderNumber(ctx context.Context, tx pgx.Tx, orderID int64, orderNumber string) error {
	query := `UPDATE orders SET order_number = $2, updated_at = $3 WHERE id = $1`

	_, err := tx.Exec(ctx, query, orderID, orderNumber, time.Now())
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", orderID).
			Str("order_number", orderNumber).
			Msg("failed to set order number")
		return fmt.Errorf("failed to set order number: %w", err)
	}

	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.OwnerID, &o.OrderNumber, &o.FirstName, &o.LastName, &o.Phone, &o.Email,
		&o.AddressLine1, &o.AddressLine2, &o.Country, &o.State, &o.City, &o.OrderNote,
		&o.OrderTotal, &o.Tax, &o.Status, &o.IP, &o.IsOrdered, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByNumber retrieves an order by its order number, in any state.
func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_number", orderNumber).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// GetPendingByNumber retrieves an order by its order number where is_ordered
// is still false.
func (r *orderRepository) GetPendingByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1 AND is_ordered = FALSE`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_number", orderNumber).Msg("pending order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to query pending order")
		return nil, fmt.Errorf("failed to query pending order: %w", err)
	}

	return order, nil
}

// GetByNumberForUpdate retrieves an order by number within the provided
// transaction, locking the row until commit. The lock serialises duplicate
// completion callbacks for the same order.
func (r *orderRepository) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1 FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return order, nil
}

// CreatePayment inserts a payment within the provided transaction.
func (r *orderRepository) CreatePayment(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	query := `
		INSERT INTO payments (id, owner_id, payment_id, payment_method, amount_paid, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}

	_, err := tx.Exec(ctx, query,
		payment.ID, payment.OwnerID, payment.PaymentID, payment.Method,
		payment.AmountPaid, payment.Status, payment.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("payment_id", payment.PaymentID).
			Msg("failed to create payment")
		return fmt.Errorf("failed to create payment: %w", err)
	}

	r.logger.Debug().Str("payment_id", payment.PaymentID).Msg("payment created")

	return nil
}

// MarkCompleted links the payment to the order and flips it to the completed
// state. This is the only place is_ordered transitions.
func (r *orderRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, orderID int64, paymentID uuid.UUID) error {
	query := `
		UPDATE orders
		SET payment_id = $2, is_ordered = TRUE, status = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, orderID, paymentID, model.OrderStatusCompleted, time.Now())
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to mark order completed")
		return fmt.Errorf("failed to mark order completed: %w", err)
	}

	return nil
}

// CreateOrderProducts inserts receipt lines and their variation selections
// within the provided transaction.
func (r *orderRepository) CreateOrderProducts(ctx context.Context, tx pgx.Tx, products []model.OrderProduct) error {
	if len(products) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_products (id, order_id, payment_id, owner_id, product_id, quantity, product_price, ordered, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, op := range products {
		batch.Queue(query,
			op.ID, op.OrderID, op.PaymentID, op.OwnerID, op.ProductID,
			op.Quantity, op.ProductPrice, op.Ordered, op.CreatedAt,
		)
		for _, variationID := range op.VariationIDs {
			batch.Queue(
				`INSERT INTO order_product_variations (order_product_id, variation_id) VALUES ($1, $2)`,
				op.ID, variationID,
			)
		}
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().Err(err).Msg("failed to create order product")
			return fmt.Errorf("failed to create order product: %w", err)
		}
	}

	r.logger.Debug().Int("count", len(products)).Msg("order products created")

	return nil
}

// ListOrderProducts retrieves the receipt lines of an order.
func (r *orderRepository) ListOrderProducts(ctx context.Context, orderID int64) ([]model.OrderProduct, error) {
	query := `
		SELECT id, order_id, payment_id, owner_id, product_id, quantity, product_price, ordered, created_at
		FROM order_products
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to query order products")
		return nil, fmt.Errorf("failed to query order products: %w", err)
	}
	defer rows.Close()

	var products []model.OrderProduct
	for rows.Next() {
		var op model.OrderProduct
		err := rows.Scan(&op.ID, &op.OrderID, &op.PaymentID, &op.OwnerID, &op.ProductID, &op.Quantity, &op.ProductPrice, &op.Ordered, &op.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order product row")
			return nil, fmt.Errorf("failed to scan order product: %w", err)
		}
		products = append(products, op)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order product rows")
		return nil, fmt.Errorf("error iterating order products: %w", err)
	}

	for i := range products {
		variationIDs, err := r.listProductVariations(ctx, products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].VariationIDs = variationIDs
	}

	return products, nil
}

func (r *orderRepository) listProductVariations(ctx context.Context, orderProductID uuid.UUID) ([]int64, error) {
	query := `
		SELECT variation_id
		FROM order_product_variations
		WHERE order_product_id = $1
		ORDER BY variation_id
	`

	rows, err := r.pool.Query(ctx, query, orderProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order product variations: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan variation id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variation ids: %w", err)
	}

	return ids, nil
}

// GetPayment retrieves a payment by its internal ID.
func (r *orderRepository) GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT id, owner_id, payment_id, payment_method, amount_paid, status, created_at
		FROM payments
		WHERE id = $1
	`

	var p model.Payment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.OwnerID, &p.PaymentID, &p.Method, &p.AmountPaid, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("payment_id", id.String()).Msg("payment not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("payment_id", id.String()).Msg("failed to query payment")
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return &p, nil
}

// ListPurchaseHistory retrieves every (order, product) pair from the receipt
// lines. Quantity is deliberately dropped; the miner works on presence only.
func (r *orderRepository) ListPurchaseHistory(ctx context.Context) ([]model.PurchaseRecord, error) {
	query := `SELECT order_id, product_id FROM order_products ORDER BY order_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query purchase history")
		return nil, fmt.Errorf("failed to query purchase history: %w", err)
	}
	defer rows.Close()

	var records []model.PurchaseRecord
	for rows.Next() {
		var rec model.PurchaseRecord
		if err := rows.Scan(&rec.OrderID, &rec.ProductID); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan purchase record")
			return nil, fmt.Errorf("failed to scan purchase record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase history: %w", err)
	}

	return records, nil
}
