package integration

import (
	"context"
	"testing"
	"time"

	"nepkart/internal/model"
	"nepkart/internal/recommend"
	"nepkart/internal/repository"
	"nepkart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shippingForm() *model.ShippingForm {
	return &model.ShippingForm{
		FirstName:    "Sita",
		LastName:     "Sharma",
		Phone:        "9841234567",
		Email:        "sita@example.com",
		AddressLine1: "Thamel Marg 12",
		Country:      "Nepal",
		State:        "Bagmati",
		City:         "Kathmandu",
	}
}

func addCartItem(t *testing.T, repo repository.CartRepository, ownerID, productID int64, quantity int, variationIDs ...int64) {
	t.Helper()
	err := repo.AddItem(context.Background(), &model.CartItem{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		ProductID:    productID,
		Quantity:     quantity,
		VariationIDs: variationIDs,
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
}

func productStock(t *testing.T, testDB *TestDB, productID int64) int {
	t.Helper()
	var stock int
	err := testDB.Pool.QueryRow(context.Background(),
		"SELECT stock FROM products WHERE id = $1", productID).Scan(&stock)
	require.NoError(t, err)
	return stock
}

func TestOrderFulfillment_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	cartRepo := repository.NewCartRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)

	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, nil, nil, logger)

	t.Run("full checkout and completion flow", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedCatalog(t, testDB.Pool)

		const ownerID = int64(7)
		addCartItem(t, cartRepo, ownerID, 1, 2, 1, 3) // Cotton Shirt x2, size M, blue
		addCartItem(t, cartRepo, ownerID, 2, 1, 4)    // Linen Shirt x1, size S

		placement, err := orderService.PlaceOrder(ctx, ownerID, shippingForm(), "203.0.113.7")
		require.NoError(t, err)
		assert.Equal(t, 250.00, placement.Total)
		assert.Equal(t, 2.50, placement.Tax)
		assert.Equal(t, 252.50, placement.GrandTotal)
		require.NotEmpty(t, placement.Order.OrderNumber)
		assert.Equal(t, placement.Order.CreatedAt.Format("20060102"),
			placement.Order.OrderNumber[:8])

		// Order is pending; stock untouched, cart intact.
		assert.Equal(t, 10, productStock(t, testDB, 1))
		items, err := cartRepo.ListByOwner(ctx, ownerID)
		require.NoError(t, err)
		assert.Len(t, items, 2)

		amount := int64(25250)
		receipt, err := orderService.CompleteOrder(ctx, &model.CompletionRequest{
			OrderNumber:   placement.Order.OrderNumber,
			TransactionID: "TXN123",
			AmountMinor:   &amount,
		})
		require.NoError(t, err)

		assert.Equal(t, "TXN123", receipt.Payment.PaymentID)
		assert.Equal(t, 252.50, receipt.Payment.AmountPaid)
		assert.True(t, receipt.Order.IsOrdered)
		assert.Equal(t, model.OrderStatusCompleted, receipt.Order.Status)
		assert.Len(t, receipt.Products, 2)
		assert.Equal(t, 250.00, receipt.Subtotal)

		// Stock decremented, cart cleared.
		assert.Equal(t, 8, productStock(t, testDB, 1))
		assert.Equal(t, 4, productStock(t, testDB, 2))
		items, err = cartRepo.ListByOwner(ctx, ownerID)
		require.NoError(t, err)
		assert.Empty(t, items)

		// Receipt lines carry the variation selections.
		persisted, err := orderRepo.ListOrderProducts(ctx, receipt.Order.ID)
		require.NoError(t, err)
		variationCount := 0
		for _, p := range persisted {
			variationCount += len(p.VariationIDs)
		}
		assert.Equal(t, 3, variationCount)
	})

	t.Run("replayed completion is a no-op", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedCatalog(t, testDB.Pool)

		const ownerID = int64(8)
		addCartItem(t, cartRepo, ownerID, 1, 1)

		placement, err := orderService.PlaceOrder(ctx, ownerID, shippingForm(), "")
		require.NoError(t, err)

		first, err := orderService.CompleteOrder(ctx, &model.CompletionRequest{
			OrderNumber:   placement.Order.OrderNumber,
			TransactionID: "TXN456",
		})
		require.NoError(t, err)
		assert.Equal(t, 9, productStock(t, testDB, 1))

		second, err := orderService.CompleteOrder(ctx, &model.CompletionRequest{
			OrderNumber:   placement.Order.OrderNumber,
			TransactionID: "TXN456",
		})
		require.NoError(t, err)

		// Same payment, same lines, no second stock decrement.
		assert.Equal(t, first.Payment.ID, second.Payment.ID)
		assert.Len(t, second.Products, 1)
		assert.Equal(t, 9, productStock(t, testDB, 1))
	})

	t.Run("receipt prices survive later catalogue changes", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedCatalog(t, testDB.Pool)

		const ownerID = int64(12)
		addCartItem(t, cartRepo, ownerID, 1, 2) // Cotton Shirt x2 @ 100.00

		placement, err := orderService.PlaceOrder(ctx, ownerID, shippingForm(), "")
		require.NoError(t, err)

		receipt, err := orderService.CompleteOrder(ctx, &model.CompletionRequest{
			OrderNumber:   placement.Order.OrderNumber,
			TransactionID: "TXN321",
		})
		require.NoError(t, err)
		require.Len(t, receipt.Products, 1)
		assert.Equal(t, 100.00, receipt.Products[0].ProductPrice)

		// Reprice the product after fulfillment.
		_, err = testDB.Pool.Exec(ctx, "UPDATE products SET price = 175.00 WHERE id = 1")
		require.NoError(t, err)

		persisted, err := orderRepo.ListOrderProducts(ctx, receipt.Order.ID)
		require.NoError(t, err)
		require.Len(t, persisted, 1)
		assert.Equal(t, 100.00, persisted[0].ProductPrice)

		// A replayed callback rebuilds the receipt from the stored lines,
		// not from the catalogue.
		replay, err := orderService.CompleteOrder(ctx, &model.CompletionRequest{
			OrderNumber:   placement.Order.OrderNumber,
			TransactionID: "TXN321",
		})
		require.NoError(t, err)
		require.Len(t, replay.Products, 1)
		assert.Equal(t, 100.00, replay.Products[0].ProductPrice)
		assert.Equal(t, 200.00, replay.Subtotal)
	})

	t.Run("missing amount falls back to order total", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedCatalog(t, testDB.Pool)

		const ownerID = int64(9)
		addCartItem(t, cartRepo, ownerID, 2, 1)

		placement, err := orderService.PlaceOrder(ctx, ownerID, shippingForm(), "")
		require.NoError(t, err)

		receipt, err := orderService.CompleteOrder(ctx, &model.CompletionRequest{
			OrderNumber: placement.Order.OrderNumber,
		})
		require.NoError(t, err)

		assert.Equal(t, model.CODPaymentID, receipt.Payment.PaymentID)
		assert.Equal(t, placement.Order.OrderTotal, receipt.Payment.AmountPaid)
	})

	t.Run("insufficient stock aborts completion", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedCatalog(t, testDB.Pool)

		const ownerID = int64(10)
		addCartItem(t, cartRepo, ownerID, 3, 5) // Slim Jeans stock is 3

		placement, err := orderService.PlaceOrder(ctx, ownerID, shippingForm(), "")
		require.NoError(t, err)

		receipt, err := orderService.CompleteOrder(ctx, &model.CompletionRequest{
			OrderNumber:   placement.Order.OrderNumber,
			TransactionID: "TXN789",
		})

		assert.Nil(t, receipt)
		assert.ErrorIs(t, err, model.ErrInsufficientStock)

		// Everything rolled back: stock, order state, cart, payment.
		assert.Equal(t, 3, productStock(t, testDB, 3))
		order, err := orderRepo.GetByNumber(ctx, placement.Order.OrderNumber)
		require.NoError(t, err)
		require.NotNil(t, order)
		assert.False(t, order.IsOrdered)
		items, err := cartRepo.ListByOwner(ctx, ownerID)
		require.NoError(t, err)
		assert.Len(t, items, 1)

		var payments int
		require.NoError(t, testDB.Pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM payments WHERE owner_id = $1", ownerID).Scan(&payments))
		assert.Zero(t, payments)
	})

	t.Run("empty cart cannot check out", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedCatalog(t, testDB.Pool)

		placement, err := orderService.PlaceOrder(ctx, 11, shippingForm(), "")
		assert.Nil(t, placement)
		assert.ErrorIs(t, err, model.ErrCartEmpty)
	})
}

func TestRecommendations_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	cartRepo := repository.NewCartRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, nil, nil, logger)

	CleanupDB(t, testDB.Pool)
	SeedCatalog(t, testDB.Pool)

	// Three shoppers buy shirts 1 and 2 together, one buys jeans alone.
	for owner := int64(20); owner < 23; owner++ {
		addCartItem(t, cartRepo, owner, 1, 1)
		addCartItem(t, cartRepo, owner, 2, 1)
		placement, err := orderService.PlaceOrder(ctx, owner, shippingForm(), "")
		require.NoError(t, err)
		_, err = orderService.CompleteOrder(ctx, &model.CompletionRequest{
			OrderNumber:   placement.Order.OrderNumber,
			TransactionID: "TXN-R",
		})
		require.NoError(t, err)
	}
	addCartItem(t, cartRepo, 23, 3, 1)
	placement, err := orderService.PlaceOrder(ctx, 23, shippingForm(), "")
	require.NoError(t, err)
	_, err = orderService.CompleteOrder(ctx, &model.CompletionRequest{
		OrderNumber:   placement.Order.OrderNumber,
		TransactionID: "TXN-R",
	})
	require.NoError(t, err)

	recommender := recommend.NewRecommender(orderRepo, recommend.NewAprioriMiner(), nil, 0, 0.2, 1.0, logger)

	ids, err := recommender.Recommend(ctx, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	ids, err = recommender.Recommend(ctx, []int64{3})
	require.NoError(t, err)
	assert.Empty(t, ids)
}
