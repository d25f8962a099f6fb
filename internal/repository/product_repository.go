package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nepkart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// Filter retrieves products matching the filter, plus the total match count.
func (r *productRepository) Filter(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
			cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		conds = append(conds, cond)
	}

	add("p.is_available = ?", true)

	if f.CategorySlug != "" {
		add("c.slug = ?", f.CategorySlug)
	}
	if len(f.CategoryIDs) > 0 {
		add("p.category_id = ANY(?)", f.CategoryIDs)
	}
	if len(f.Sizes) > 0 {
		add(`EXISTS (
			SELECT 1 FROM variations v
			WHERE v.product_id = p.id
			  AND v.variation_category = 'size'
			  AND v.variation_value = ANY(?)
		)`, f.Sizes)
	}
	if f.MinPrice != nil {
		add("p.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.price <= ?", *f.MaxPrice)
	}
	if f.Keyword != "" {
		kw := "%" + f.Keyword + "%"
		add("(p.name ILIKE ? OR p.description ILIKE ?)", kw, kw)
	}

	where := "WHERE " + strings.Join(conds, " AND ")
	from := `FROM products p JOIN categories c ON c.id = p.category_id `

	var count int
	countQuery := "SELECT COUNT(*) " + from + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = model.DefaultPageSize
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf(" ORDER BY p.id LIMIT $%d", len(args))
	args = append(args, f.Offset)
	limitClause += fmt.Sprintf(" OFFSET $%d", len(args))

	query := `SELECT p.id, p.name, p.slug, p.description, p.price, p.stock, p.category_id, p.is_available, p.created_at ` +
		from + where + limitClause

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.IsAvailable, &p.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, count, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `
		SELECT id, name, slug, description, price, stock, category_id, is_available, created_at
		FROM products
		WHERE id = $1
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.IsAvailable, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetBySlugs retrieves a product by its category and product slugs, together
// with its variations and visible reviews.
func (r *productRepository) GetBySlugs(ctx context.Context, categorySlug, productSlug string) (*model.ProductDetail, error) {
	query := `
		SELECT p.id, p.name, p.slug, p.description, p.price, p.stock, p.category_id, p.is_available, p.created_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE c.slug = $1 AND p.slug = $2
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, categorySlug, productSlug).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.IsAvailable, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().
				Str("category_slug", categorySlug).
				Str("product_slug", productSlug).
				Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_slug", productSlug).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	variations, err := r.listVariations(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	reviews, err := r.ListReviews(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &model.ProductDetail{
		Product:    p,
		Variations: variations,
		Reviews:    reviews,
	}, nil
}

func (r *productRepository) listVariations(ctx context.Context, productID int64) ([]model.Variation, error) {
	query := `
		SELECT id, product_id, variation_category, variation_value
		FROM variations
		WHERE product_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to query variations")
		return nil, fmt.Errorf("failed to query variations: %w", err)
	}
	defer rows.Close()

	var variations []model.Variation
	for rows.Next() {
		var v model.Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Category, &v.Value); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan variation row")
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		variations = append(variations, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variations: %w", err)
	}

	return variations, nil
}

// DecrementStock atomically decrements a product's stock. The conditional
// update is the only stock mutation path; the WHERE clause keeps stock from
// going negative under concurrent fulfillments.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, productID int64, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("product_id", productID).
			Int("quantity", quantity).
			Msg("failed to decrement stock")
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Int64("product_id", productID).
			Int("quantity", quantity).
			Msg("insufficient stock")
		return model.ErrInsufficientStock
	}

	return nil
}

// UpsertReview creates a review, or updates the owner's existing review of
// the same product.
func (r *productRepository) UpsertReview(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (product_id, owner_id, subject, rating, review, ip, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (product_id, owner_id) DO UPDATE
		SET subject = EXCLUDED.subject,
		    rating = EXCLUDED.rating,
		    review = EXCLUDED.review,
		    ip = EXCLUDED.ip,
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	err := r.pool.QueryRow(ctx, query,
		review.ProductID, review.OwnerID, review.Subject, review.Rating,
		review.Review, review.IP, review.Status, now,
	).Scan(&review.ID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("product_id", review.ProductID).
			Int64("owner_id", review.OwnerID).
			Msg("failed to upsert review")
		return fmt.Errorf("failed to upsert review: %w", err)
	}

	r.logger.Debug().
		Int64("product_id", review.ProductID).
		Int64("owner_id", review.OwnerID).
		Msg("review saved")

	return nil
}

// ListReviews retrieves the visible reviews of a product.
func (r *productRepository) ListReviews(ctx context.Context, productID int64) ([]model.Review, error) {
	query := `
		SELECT id, product_id, owner_id, subject, rating, review, ip, status, created_at, updated_at
		FROM reviews
		WHERE product_id = $1 AND status = TRUE
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to query reviews")
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var rv model.Review
		err := rows.Scan(&rv.ID, &rv.ProductID, &rv.OwnerID, &rv.Subject, &rv.Rating, &rv.Review, &rv.IP, &rv.Status, &rv.CreatedAt, &rv.UpdatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan review row")
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
