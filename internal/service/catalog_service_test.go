package service

import (
	"context"
	"testing"

	"nepkart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_Filter_DefaultsPageSize(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockProductRepo := new(MockProductRepository)
	svc := NewCatalogService(mockProductRepo, logger)

	products := []model.Product{
		{ID: 1, Name: "Product A", Price: 100.00},
		{ID: 2, Name: "Product B", Price: 50.00},
	}

	mockProductRepo.On("Filter", ctx, mock.MatchedBy(func(f model.ProductFilter) bool {
		return f.Limit == model.DefaultPageSize && f.Offset == 0
	})).Return(products, 2, nil)

	listing, err := svc.Filter(ctx, model.ProductFilter{})

	require.NoError(t, err)
	assert.Equal(t, 2, listing.Count)
	assert.Len(t, listing.Products, 2)
}

func TestCatalogService_Filter_InvalidPriceRange(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockProductRepo := new(MockProductRepository)
	svc := NewCatalogService(mockProductRepo, logger)

	low, high := 50.0, 200.0
	listing, err := svc.Filter(ctx, model.ProductFilter{MinPrice: &high, MaxPrice: &low})

	assert.Nil(t, listing)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	mockProductRepo.AssertNotCalled(t, "Filter")
}

func TestCatalogService_GetDetail_NotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockProductRepo := new(MockProductRepository)
	svc := NewCatalogService(mockProductRepo, logger)

	mockProductRepo.On("GetBySlugs", ctx, "shirts", "missing").Return(nil, nil)

	detail, err := svc.GetDetail(ctx, "shirts", "missing")

	assert.Nil(t, detail)
	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestCatalogService_SubmitReview_Success(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockProductRepo := new(MockProductRepository)
	svc := NewCatalogService(mockProductRepo, logger)

	mockProductRepo.On("GetByID", ctx, int64(1)).Return(&model.Product{ID: 1, IsAvailable: true}, nil)
	mockProductRepo.On("UpsertReview", ctx, mock.AnythingOfType("*model.Review")).Return(nil)

	review, err := svc.SubmitReview(ctx, 7, 1, &model.ReviewRequest{
		Subject: "Great shirt",
		Rating:  4.5,
		Review:  "Fits well.",
	}, "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, int64(7), review.OwnerID)
	assert.Equal(t, int64(1), review.ProductID)
	assert.Equal(t, 4.5, review.Rating)
	assert.True(t, review.Status)
	assert.Equal(t, "203.0.113.7", review.IP)
	mockProductRepo.AssertExpectations(t)
}

func TestCatalogService_SubmitReview_InvalidRating(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockProductRepo := new(MockProductRepository)
	svc := NewCatalogService(mockProductRepo, logger)

	for _, rating := range []float64{0, -1, 5.5} {
		review, err := svc.SubmitReview(ctx, 7, 1, &model.ReviewRequest{Rating: rating}, "")
		assert.Nil(t, review)
		var verr *model.ValidationError
		assert.ErrorAs(t, err, &verr)
	}
	mockProductRepo.AssertNotCalled(t, "UpsertReview")
}

func TestCatalogService_SubmitReview_ProductNotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockProductRepo := new(MockProductRepository)
	svc := NewCatalogService(mockProductRepo, logger)

	mockProductRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	review, err := svc.SubmitReview(ctx, 7, 99, &model.ReviewRequest{Rating: 3}, "")

	assert.Nil(t, review)
	assert.ErrorIs(t, err, model.ErrProductNotFound)
}
