package recommend

import (
	"context"
	"testing"

	"nepkart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockHistorySource is a mock implementation of HistorySource.
type MockHistorySource struct {
	mock.Mock
}

func (m *MockHistorySource) ListPurchaseHistory(ctx context.Context) ([]model.PurchaseRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PurchaseRecord), args.Error(1)
}

func testHistory() []model.PurchaseRecord {
	return []model.PurchaseRecord{
		{OrderID: 100, ProductID: 1},
		{OrderID: 100, ProductID: 2},
		{OrderID: 101, ProductID: 1},
		{OrderID: 101, ProductID: 2},
		{OrderID: 102, ProductID: 1},
		{OrderID: 102, ProductID: 2},
		{OrderID: 103, ProductID: 2},
		{OrderID: 104, ProductID: 3},
	}
}

func TestRecommender_Recommend(t *testing.T) {
	source := new(MockHistorySource)
	source.On("ListPurchaseHistory", mock.Anything).Return(testHistory(), nil)

	r := NewRecommender(source, NewAprioriMiner(), nil, 0, 0.2, 1.0, zerolog.Nop())

	// Product 1 in the cart; 2 co-occurs with it in 3 of 5 orders.
	ids, err := r.Recommend(context.Background(), []int64{1})

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestRecommender_Recommend_ExcludesCartItems(t *testing.T) {
	source := new(MockHistorySource)
	source.On("ListPurchaseHistory", mock.Anything).Return(testHistory(), nil)

	r := NewRecommender(source, NewAprioriMiner(), nil, 0, 0.2, 1.0, zerolog.Nop())

	// Both sides of the only strong rule are already in the cart.
	ids, err := r.Recommend(context.Background(), []int64{1, 2})

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRecommender_Recommend_EmptyHistory(t *testing.T) {
	source := new(MockHistorySource)
	source.On("ListPurchaseHistory", mock.Anything).Return([]model.PurchaseRecord{}, nil)

	r := NewRecommender(source, NewAprioriMiner(), nil, 0, 0.01, 1.0, zerolog.Nop())

	ids, err := r.Recommend(context.Background(), []int64{1})

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRecommender_Recommend_EmptyCart(t *testing.T) {
	source := new(MockHistorySource)
	source.On("ListPurchaseHistory", mock.Anything).Return(testHistory(), nil)

	r := NewRecommender(source, NewAprioriMiner(), nil, 0, 0.2, 1.0, zerolog.Nop())

	// No cart products means no rule antecedent can match.
	ids, err := r.Recommend(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRecommender_CacheKey_OrderIndependent(t *testing.T) {
	r := NewRecommender(nil, NewAprioriMiner(), nil, 0, 0.01, 1.0, zerolog.Nop())

	assert.Equal(t, r.cacheKey([]int64{3, 1, 2}), r.cacheKey([]int64{2, 3, 1}))
	assert.Equal(t, "recommend:1,2,3", r.cacheKey([]int64{3, 1, 2}))
	assert.Equal(t, "recommend:", r.cacheKey(nil))
}

func TestBuildBaskets(t *testing.T) {
	baskets := buildBaskets([]model.PurchaseRecord{
		{OrderID: 100, ProductID: 2},
		{OrderID: 100, ProductID: 1},
		{OrderID: 100, ProductID: 2}, // duplicate line collapses
		{OrderID: 101, ProductID: 3},
	})

	require.Len(t, baskets, 2)
	assert.Equal(t, []int64{1, 2}, baskets[0])
	assert.Equal(t, []int64{3}, baskets[1])
}
