package service

import (
	"context"
	"fmt"
	"time"

	"nepkart/internal/model"
	"nepkart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, logger zerolog.Logger) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("component", "cart_service").Logger(),
	}
}

func (s *cartService) GetCart(ctx context.Context, ownerID int64) (*model.Cart, error) {
	items, err := s.cartRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("Failed to load cart")
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var total float64
	for _, item := range items {
		total += item.Product.Price * float64(item.Quantity)
	}
	tax := total * model.TaxRate

	return &model.Cart{
		Items:      items,
		Total:      total,
		Tax:        tax,
		GrandTotal: total + tax,
	}, nil
}

func (s *cartService) AddItem(ctx context.Context, ownerID int64, req *model.CartItemRequest) (*model.CartItem, error) {
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil || !product.IsAvailable {
		return nil, model.ErrProductNotFound
	}

	item := &model.CartItem{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		VariationIDs: req.VariationIDs,
		Product:      product,
		CreatedAt:    time.Now(),
	}

	if err := s.cartRepo.AddItem(ctx, item); err != nil {
		s.logger.Error().Err(err).Int64("owner_id", ownerID).Int64("product_id", req.ProductID).Msg("Failed to add cart item")
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, ownerID int64, itemID uuid.UUID) error {
	if err := s.cartRepo.RemoveItem(ctx, ownerID, itemID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}
