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

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// ListByOwner retrieves the owner's cart items with their products and
// selected variation ids.
func (r *cartRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.CartItem, error) {
	query := `
		SELECT ci.id, ci.owner_id, ci.product_id, ci.quantity, ci.created_at,
		       p.id, p.name, p.slug, p.description, p.price, p.stock, p.category_id, p.is_available, p.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.owner_id = $1
		ORDER BY ci.created_at
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var (
			item model.CartItem
			p    model.Product
		)
		err := rows.Scan(
			&item.ID, &item.OwnerID, &item.ProductID, &item.Quantity, &item.CreatedAt,
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.IsAvailable, &p.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		item.Product = &p
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart item rows")
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	for i := range items {
		variationIDs, err := r.listItemVariations(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].VariationIDs = variationIDs
	}

	return items, nil
}

func (r *cartRepository) listItemVariations(ctx context.Context, itemID uuid.UUID) ([]int64, error) {
	query := `
		SELECT variation_id
		FROM cart_item_variations
		WHERE cart_item_id = $1
		ORDER BY variation_id
	`

	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_item_id", itemID.String()).Msg("failed to query cart item variations")
		return nil, fmt.Errorf("failed to query cart item variations: %w", err)
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

// AddItem inserts a cart line item and its variation selections.
func (r *cartRepository) AddItem(ctx context.Context, item *model.CartItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO cart_items (id, owner_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = tx.Exec(ctx, query, item.ID, item.OwnerID, item.ProductID, item.Quantity, item.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("owner_id", item.OwnerID).
			Int64("product_id", item.ProductID).
			Msg("failed to insert cart item")
		return fmt.Errorf("failed to insert cart item: %w", err)
	}

	for _, variationID := range item.VariationIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO cart_item_variations (cart_item_id, variation_id) VALUES ($1, $2)`,
			item.ID, variationID,
		)
		if err != nil {
			r.logger.Error().Err(err).Str("cart_item_id", item.ID.String()).Msg("failed to insert cart item variation")
			return fmt.Errorf("failed to insert cart item variation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cart item: %w", err)
	}

	r.logger.Debug().
		Str("cart_item_id", item.ID.String()).
		Int64("owner_id", item.OwnerID).
		Msg("cart item added")

	return nil
}

// RemoveItem deletes one of the owner's cart items.
func (r *cartRepository) RemoveItem(ctx context.Context, ownerID int64, itemID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE id = $1 AND owner_id = $2`

	tag, err := r.pool.Exec(ctx, query, itemID, ownerID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_item_id", itemID.String()).Msg("failed to delete cart item")
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// DeleteByOwner removes every cart item of the owner within the provided
// transaction. Variation links go with ON DELETE CASCADE.
func (r *cartRepository) DeleteByOwner(ctx context.Context, tx pgx.Tx, ownerID int64) error {
	query := `DELETE FROM cart_items WHERE owner_id = $1`

	tag, err := tx.Exec(ctx, query, ownerID)
	if err != nil {
		r.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	r.logger.Debug().
		Int64("owner_id", ownerID).
		Int64("deleted", tag.RowsAffected()).
		Msg("cart cleared")

	return nil
}
