package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"nepkart/internal/events"
	"nepkart/internal/model"
	"nepkart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultPaymentMethod = "Khalti"

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	mailer      ConfirmationSender
	publisher   EventPublisher
	logger      zerolog.Logger
}

// NewOrderService creates a new order service. The mailer and publisher are
// optional; pass nil to disable the corresponding notification.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	mailer ConfirmationSender,
	publisher EventPublisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		mailer:      mailer,
		publisher:   publisher,
		logger:      logger.With().Str("component", "order_service").Logger(),
	}
}

// orderNumber derives the externally visible order number from the creation
// date and the assigned row id, e.g. 20260830 + 42 -> "2026083042".
func orderNumber(createdAt time.Time, orderID int64) string {
	return createdAt.Format("20060102") + strconv.FormatInt(orderID, 10)
}

func (s *orderService) PlaceOrder(ctx context.Context, ownerID int64, form *model.ShippingForm, ip string) (*model.OrderPlacement, error) {
	items, err := s.cartRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("Failed to load cart")
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, model.ErrCartEmpty
	}

	if verr := form.Validate(); verr != nil {
		return nil, verr
	}

	var total float64
	for _, item := range items {
		total += item.Product.Price * float64(item.Quantity)
	}
	tax := total * model.TaxRate
	grandTotal := total + tax

	now := time.Now()
	order := &model.Order{
		OwnerID:      ownerID,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Phone:        form.Phone,
		Email:        form.Email,
		AddressLine1: form.AddressLine1,
		AddressLine2: form.AddressLine2,
		Country:      form.Country,
		State:        form.State,
		City:         form.City,
		OrderNote:    form.OrderNote,
		OrderTotal:   grandTotal,
		Tax:          tax,
		Status:       model.OrderStatusNew,
		IP:           ip,
		IsOrdered:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("Failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order.OrderNumber = orderNumber(order.CreatedAt, order.ID)
	if err := s.orderRepo.SetOrderNumber(ctx, tx, order.ID, order.OrderNumber); err != nil {
		return nil, fmt.Errorf("failed to set order number: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	s.logger.Info().
		Str("order_number", order.OrderNumber).
		Int64("owner_id", ownerID).
		Float64("order_total", grandTotal).
		Msg("Order placed")

	return &model.OrderPlacement{
		Order:      order,
		Items:      items,
		Total:      total,
		Tax:        tax,
		GrandTotal: grandTotal,
	}, nil
}

func (s *orderService) CompleteOrder(ctx context.Context, req *model.CompletionRequest) (*model.OrderReceipt, error) {
	order, err := s.orderRepo.GetByNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.IsOrdered {
		// Replayed callback: everything is already persisted.
		return s.buildReceipt(ctx, order)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Re-read under a row lock so concurrent callbacks for the same order
	// serialize and the loser sees is_ordered already set.
	order, err = s.orderRepo.GetByNumberForUpdate(ctx, tx, req.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.IsOrdered {
		tx.Rollback(ctx)
		return s.buildReceipt(ctx, order)
	}

	payment := buildPayment(order, req)
	if err := s.orderRepo.CreatePayment(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if err := s.orderRepo.MarkCompleted(ctx, tx, order.ID, payment.ID); err != nil {
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}
	order.PaymentID = &payment.ID
	order.IsOrdered = true
	order.Status = model.OrderStatusCompleted

	items, err := s.cartRepo.ListByOwner(ctx, order.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var subtotal float64
	products := make([]model.OrderProduct, 0, len(items))
	for _, item := range items {
		variationIDs := make([]int64, len(item.VariationIDs))
		copy(variationIDs, item.VariationIDs)
		products = append(products, model.OrderProduct{
			ID:           uuid.New(),
			OrderID:      order.ID,
			PaymentID:    payment.ID,
			OwnerID:      order.OwnerID,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			ProductPrice: item.Product.Price,
			Ordered:      true,
			VariationIDs: variationIDs,
			CreatedAt:    time.Now(),
		})
		subtotal += item.Product.Price * float64(item.Quantity)
	}

	if err := s.orderRepo.CreateOrderProducts(ctx, tx, products); err != nil {
		return nil, fmt.Errorf("failed to create receipt lines: %w", err)
	}

	for _, item := range items {
		if err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			s.logger.Warn().Err(err).
				Str("order_number", order.OrderNumber).
				Int64("product_id", item.ProductID).
				Msg("Stock decrement failed, aborting fulfillment")
			return nil, err
		}
	}

	if err := s.cartRepo.DeleteByOwner(ctx, tx, order.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit fulfillment: %w", err)
	}

	s.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("transaction_id", payment.PaymentID).
		Float64("amount_paid", payment.AmountPaid).
		Int("item_count", len(products)).
		Msg("Order completed")

	s.notify(ctx, order, payment, len(products))

	return &model.OrderReceipt{
		Order:    order,
		Payment:  payment,
		Products: products,
		Subtotal: subtotal,
	}, nil
}

// buildPayment translates the callback parameters into a payment record.
// A missing transaction id records a cash-on-delivery settlement; a missing
// amount falls back to the stored order total.
func buildPayment(order *model.Order, req *model.CompletionRequest) *model.Payment {
	transactionID := req.TransactionID
	if transactionID == "" {
		transactionID = model.CODPaymentID
	}

	method := req.PaymentMethod
	if method == "" {
		method = defaultPaymentMethod
	}

	amountPaid := order.OrderTotal
	if req.AmountMinor != nil {
		amountPaid = float64(*req.AmountMinor) / 100
	}

	return &model.Payment{
		ID:         uuid.New(),
		OwnerID:    order.OwnerID,
		PaymentID:  transactionID,
		Method:     method,
		AmountPaid: amountPaid,
		Status:     model.PaymentStatusCompleted,
		CreatedAt:  time.Now(),
	}
}

// buildReceipt assembles the receipt view of an already completed order.
func (s *orderService) buildReceipt(ctx context.Context, order *model.Order) (*model.OrderReceipt, error) {
	products, err := s.orderRepo.ListOrderProducts(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt lines: %w", err)
	}

	var payment *model.Payment
	if order.PaymentID != nil {
		payment, err = s.orderRepo.GetPayment(ctx, *order.PaymentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load payment: %w", err)
		}
	}

	var subtotal float64
	for _, p := range products {
		subtotal += p.ProductPrice * float64(p.Quantity)
	}

	return &model.OrderReceipt{
		Order:    order,
		Payment:  payment,
		Products: products,
		Subtotal: subtotal,
	}, nil
}

// notify sends the confirmation mail and the fulfillment event. Both are
// best-effort: the order is already committed and a failure here only logs.
func (s *orderService) notify(ctx context.Context, order *model.Order, payment *model.Payment, itemCount int) {
	if s.mailer != nil {
		if err := s.mailer.SendOrderConfirmation(ctx, order); err != nil {
			s.logger.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("Failed to send confirmation mail")
		}
	}

	if s.publisher != nil {
		event := events.OrderCompletedEvent{
			OrderNumber: order.OrderNumber,
			OwnerID:     order.OwnerID,
			AmountPaid:  payment.AmountPaid,
			ItemCount:   itemCount,
			CompletedAt: time.Now(),
		}
		if err := s.publisher.Publish(events.OrderCompletedKey, event); err != nil {
			s.logger.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("Failed to publish completion event")
		}
	}
}
