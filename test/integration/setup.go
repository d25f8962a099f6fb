package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			slug VARCHAR(100) NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			price DECIMAL(10, 2) NOT NULL,
			stock INTEGER NOT NULL CHECK (stock >= 0),
			category_id BIGINT NOT NULL REFERENCES categories(id),
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS variations (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			variation_category VARCHAR(100) NOT NULL,
			variation_value VARCHAR(100) NOT NULL
		);

		CREATE TABLE IF NOT EXISTS reviews (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			owner_id BIGINT NOT NULL,
			subject VARCHAR(255) NOT NULL DEFAULT '',
			rating DECIMAL(3, 1) NOT NULL,
			review TEXT NOT NULL DEFAULT '',
			ip VARCHAR(45) NOT NULL DEFAULT '',
			status BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (product_id, owner_id)
		);

		CREATE TABLE IF NOT EXISTS cart_items (
			id UUID PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS cart_item_variations (
			cart_item_id UUID NOT NULL REFERENCES cart_items(id) ON DELETE CASCADE,
			variation_id BIGINT NOT NULL REFERENCES variations(id),
			PRIMARY KEY (cart_item_id, variation_id)
		);

		CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			payment_id VARCHAR(100) NOT NULL,
			payment_method VARCHAR(50) NOT NULL,
			amount_paid DECIMAL(10, 2) NOT NULL,
			status VARCHAR(50) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			order_number VARCHAR(50) NOT NULL DEFAULT '',
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			phone VARCHAR(20) NOT NULL,
			email VARCHAR(255) NOT NULL,
			address_line_1 VARCHAR(255) NOT NULL,
			address_line_2 VARCHAR(255) NOT NULL DEFAULT '',
			country VARCHAR(100) NOT NULL,
			state VARCHAR(100) NOT NULL,
			city VARCHAR(100) NOT NULL,
			order_note TEXT NOT NULL DEFAULT '',
			order_total DECIMAL(10, 2) NOT NULL,
			tax DECIMAL(10, 2) NOT NULL,
			status VARCHAR(50) NOT NULL,
			ip VARCHAR(45) NOT NULL DEFAULT '',
			is_ordered BOOLEAN NOT NULL DEFAULT FALSE,
			payment_id UUID REFERENCES payments(id),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS order_products (
			id UUID PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			payment_id UUID NOT NULL REFERENCES payments(id),
			owner_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			product_price DECIMAL(10, 2) NOT NULL,
			ordered BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS order_product_variations (
			order_product_id UUID NOT NULL REFERENCES order_products(id) ON DELETE CASCADE,
			variation_id BIGINT NOT NULL REFERENCES variations(id),
			PRIMARY KEY (order_product_id, variation_id)
		);

		CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id);
		CREATE INDEX IF NOT EXISTS idx_cart_items_owner_id ON cart_items(owner_id);
		CREATE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number);
		CREATE INDEX IF NOT EXISTS idx_order_products_order_id ON order_products(order_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedCatalog inserts test categories, products and variations.
func SeedCatalog(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	// Explicit ids keep reseeding deterministic across cleanups.
	_, err := pool.Exec(ctx, `
		INSERT INTO categories (id, name, slug) VALUES
			(1, 'Shirts', 'shirts'),
			(2, 'Jeans', 'jeans')
	`)
	if err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO products (id, name, slug, description, price, stock, category_id, is_available) VALUES
			(1, 'Cotton Shirt', 'cotton-shirt', 'A soft cotton shirt.', 100.00, 10, 1, TRUE),
			(2, 'Linen Shirt', 'linen-shirt', 'A light linen shirt.', 50.00, 5, 1, TRUE),
			(3, 'Slim Jeans', 'slim-jeans', 'Slim fit jeans.', 200.00, 3, 2, TRUE),
			(4, 'Retired Shirt', 'retired-shirt', 'No longer sold.', 80.00, 0, 1, FALSE)
	`)
	if err != nil {
		t.Fatalf("failed to seed products: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO variations (id, product_id, variation_category, variation_value) VALUES
			(1, 1, 'size', 'M'),
			(2, 1, 'size', 'L'),
			(3, 1, 'color', 'blue'),
			(4, 2, 'size', 'S'),
			(5, 3, 'size', 'M')
	`)
	if err != nil {
		t.Fatalf("failed to seed variations: %v", err)
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"order_product_variations", "order_products", "orders", "payments",
		"cart_item_variations", "cart_items", "reviews", "variations",
		"products", "categories",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
