package service

import (
	"context"
	"fmt"
	"time"

	"nepkart/internal/model"
	"nepkart/internal/repository"

	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(productRepo repository.ProductRepository, logger zerolog.Logger) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		logger:      logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) Filter(ctx context.Context, f model.ProductFilter) (*model.ProductListing, error) {
	if f.Limit <= 0 {
		f.Limit = model.DefaultPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, &model.ValidationError{Fields: map[string]string{
			"price": "Minimum price must not exceed maximum price.",
		}}
	}

	products, count, err := s.productRepo.Filter(ctx, f)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to filter products")
		return nil, fmt.Errorf("failed to filter products: %w", err)
	}

	return &model.ProductListing{Products: products, Count: count}, nil
}

func (s *catalogService) GetDetail(ctx context.Context, categorySlug, productSlug string) (*model.ProductDetail, error) {
	detail, err := s.productRepo.GetBySlugs(ctx, categorySlug, productSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if detail == nil {
		return nil, model.ErrProductNotFound
	}
	return detail, nil
}

func (s *catalogService) SubmitReview(ctx context.Context, ownerID, productID int64, req *model.ReviewRequest, ip string) (*model.Review, error) {
	if req.Rating < 0.5 || req.Rating > 5 {
		return nil, &model.ValidationError{Fields: map[string]string{
			"rating": "Rating must be between 0.5 and 5.",
		}}
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	now := time.Now()
	review := &model.Review{
		ProductID: productID,
		OwnerID:   ownerID,
		Subject:   req.Subject,
		Rating:    req.Rating,
		Review:    req.Review,
		IP:        ip,
		Status:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.productRepo.UpsertReview(ctx, review); err != nil {
		s.logger.Error().Err(err).Int64("product_id", productID).Msg("Failed to save review")
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	return review, nil
}
