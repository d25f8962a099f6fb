package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nepkart/internal/model"
	"nepkart/internal/recommend"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCartService is a mock implementation of service.CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetCart(ctx context.Context, ownerID int64) (*model.Cart, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, ownerID int64, req *model.CartItemRequest) (*model.CartItem, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, ownerID int64, itemID uuid.UUID) error {
	args := m.Called(ctx, ownerID, itemID)
	return args.Error(0)
}

// stubHistory feeds the recommender a fixed purchase history.
type stubHistory struct {
	records []model.PurchaseRecord
}

func (s *stubHistory) ListPurchaseHistory(ctx context.Context) ([]model.PurchaseRecord, error) {
	return s.records, nil
}

func testRecommender(records []model.PurchaseRecord) *recommend.Recommender {
	return recommend.NewRecommender(&stubHistory{records: records}, recommend.NewAprioriMiner(), nil, 0, 0.2, 1.0, zerolog.Nop())
}

func TestCartHandler_Get(t *testing.T) {
	logger := zerolog.Nop()
	carts := new(MockCartService)
	h := NewCartHandler(carts, testRecommender(nil), logger)

	cart := &model.Cart{
		Items:      []model.CartItem{{ID: uuid.New(), ProductID: 1, Quantity: 2}},
		Total:      200.00,
		Tax:        2.00,
		GrandTotal: 202.00,
	}
	carts.On("GetCart", mock.Anything, int64(7)).Return(cart, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("X-Owner-ID", "7")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got model.Cart
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 202.00, got.GrandTotal)
}

func TestCartHandler_Get_MissingOwner(t *testing.T) {
	logger := zerolog.Nop()
	carts := new(MockCartService)
	h := NewCartHandler(carts, testRecommender(nil), logger)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	carts.AssertNotCalled(t, "GetCart")
}

func TestCartHandler_AddItem(t *testing.T) {
	logger := zerolog.Nop()
	carts := new(MockCartService)
	h := NewCartHandler(carts, testRecommender(nil), logger)

	item := &model.CartItem{ID: uuid.New(), OwnerID: 7, ProductID: 1, Quantity: 2}
	carts.On("AddItem", mock.Anything, int64(7), mock.AnythingOfType("*model.CartItemRequest")).Return(item, nil)

	body := bytes.NewReader([]byte(`{"productId":1,"quantity":2,"variationIds":[11]}`))
	req := httptest.NewRequest(http.MethodPost, "/api/cart", body)
	req.Header.Set("X-Owner-ID", "7")
	rec := httptest.NewRecorder()

	h.AddItem(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCartHandler_AddItem_InvalidQuantity(t *testing.T) {
	logger := zerolog.Nop()
	carts := new(MockCartService)
	h := NewCartHandler(carts, testRecommender(nil), logger)

	carts.On("AddItem", mock.Anything, int64(7), mock.Anything).Return(nil, model.ErrInvalidQuantity)

	body := bytes.NewReader([]byte(`{"productId":1,"quantity":0}`))
	req := httptest.NewRequest(http.MethodPost, "/api/cart", body)
	req.Header.Set("X-Owner-ID", "7")
	rec := httptest.NewRecorder()

	h.AddItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartHandler_RemoveItem(t *testing.T) {
	logger := zerolog.Nop()
	carts := new(MockCartService)
	h := NewCartHandler(carts, testRecommender(nil), logger)

	itemID := uuid.New()
	carts.On("RemoveItem", mock.Anything, int64(7), itemID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/cart/"+itemID.String(), nil)
	req.Header.Set("X-Owner-ID", "7")
	rec := httptest.NewRecorder()

	h.RemoveItem(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCartHandler_RemoveItem_BadID(t *testing.T) {
	logger := zerolog.Nop()
	carts := new(MockCartService)
	h := NewCartHandler(carts, testRecommender(nil), logger)

	req := httptest.NewRequest(http.MethodDelete, "/api/cart/not-a-uuid", nil)
	req.Header.Set("X-Owner-ID", "7")
	rec := httptest.NewRecorder()

	h.RemoveItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	carts.AssertNotCalled(t, "RemoveItem")
}

func TestCartHandler_Recommendations(t *testing.T) {
	logger := zerolog.Nop()
	carts := new(MockCartService)

	history := []model.PurchaseRecord{
		{OrderID: 100, ProductID: 1}, {OrderID: 100, ProductID: 2},
		{OrderID: 101, ProductID: 1}, {OrderID: 101, ProductID: 2},
		{OrderID: 102, ProductID: 3},
	}
	h := NewCartHandler(carts, testRecommender(history), logger)

	cart := &model.Cart{Items: []model.CartItem{{ProductID: 1, Quantity: 1}}}
	carts.On("GetCart", mock.Anything, int64(7)).Return(cart, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart/recommendations", nil)
	req.Header.Set("X-Owner-ID", "7")
	rec := httptest.NewRecorder()

	h.Recommendations(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string][]int64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, []int64{2}, got["productIds"])
}
