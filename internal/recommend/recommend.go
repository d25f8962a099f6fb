package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"nepkart/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// HistorySource supplies the (order, product) co-occurrence pairs the miner
// works on. Satisfied by repository.OrderRepository.
type HistorySource interface {
	ListPurchaseHistory(ctx context.Context) ([]model.PurchaseRecord, error)
}

// Recommender produces "frequently bought together" candidates for a cart.
// The computation is stateless; results are cached because mining the whole
// order history on every request is the one hot spot in this system.
type Recommender struct {
	source     HistorySource
	miner      Miner
	cache      *redis.Client
	cacheTTL   time.Duration
	minSupport float64
	minLift    float64
	logger     zerolog.Logger
}

// NewRecommender creates a recommender. cache may be nil, in which case
// every call mines fresh.
func NewRecommender(
	source HistorySource,
	miner Miner,
	cache *redis.Client,
	cacheTTL time.Duration,
	minSupport float64,
	minLift float64,
	logger zerolog.Logger,
) *Recommender {
	return &Recommender{
		source:     source,
		miner:      miner,
		cache:      cache,
		cacheTTL:   cacheTTL,
		minSupport: minSupport,
		minLift:    minLift,
		logger:     logger.With().Str("component", "recommender").Logger(),
	}
}

// Recommend returns product ids frequently bought together with the cart's
// products, excluding the cart's own ids. Empty history yields an empty set.
func (r *Recommender) Recommend(ctx context.Context, cartProductIDs []int64) ([]int64, error) {
	cacheKey := r.cacheKey(cartProductIDs)

	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, cacheKey).Result(); err == nil {
			var ids []int64
			if err := json.Unmarshal([]byte(cached), &ids); err == nil {
				r.logger.Debug().Str("key", cacheKey).Msg("recommendation cache hit")
				return ids, nil
			}
		}
	}

	records, err := r.source.ListPurchaseHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}

	if len(records) == 0 {
		return []int64{}, nil
	}

	baskets := buildBaskets(records)

	itemsets := r.miner.MineFrequentItemsets(baskets, r.minSupport)
	if len(itemsets) == 0 {
		return []int64{}, nil
	}

	rules := r.miner.DeriveRules(itemsets, r.minLift)

	cart := make(map[int64]bool, len(cartProductIDs))
	for _, id := range cartProductIDs {
		cart[id] = true
	}

	candidates := make(map[int64]bool)
	for _, rule := range rules {
		if !intersects(rule.Antecedent, cart) {
			continue
		}
		for _, id := range rule.Consequent {
			candidates[id] = true
		}
	}

	// Never recommend what is already in the cart.
	ids := make([]int64, 0, len(candidates))
	for id := range candidates {
		if !cart[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	r.logger.Debug().
		Int("baskets", len(baskets)).
		Int("rules", len(rules)).
		Int("recommended", len(ids)).
		Msg("recommendations mined")

	if r.cache != nil {
		if data, err := json.Marshal(ids); err == nil {
			if err := r.cache.Set(ctx, cacheKey, data, r.cacheTTL).Err(); err != nil {
				r.logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache recommendations")
			}
		}
	}

	return ids, nil
}

func (r *Recommender) cacheKey(cartProductIDs []int64) string {
	ids := make([]int64, len(cartProductIDs))
	copy(ids, cartProductIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "recommend:" + strings.Join(parts, ",")
}

// buildBaskets collapses purchase records into one presence-only basket per
// order; quantities are discarded.
func buildBaskets(records []model.PurchaseRecord) [][]int64 {
	byOrder := make(map[int64]map[int64]bool)
	var orderIDs []int64
	for _, rec := range records {
		if byOrder[rec.OrderID] == nil {
			byOrder[rec.OrderID] = make(map[int64]bool)
			orderIDs = append(orderIDs, rec.OrderID)
		}
		byOrder[rec.OrderID][rec.ProductID] = true
	}

	baskets := make([][]int64, 0, len(byOrder))
	for _, orderID := range orderIDs {
		basket := make([]int64, 0, len(byOrder[orderID]))
		for productID := range byOrder[orderID] {
			basket = append(basket, productID)
		}
		sort.Slice(basket, func(i, j int) bool { return basket[i] < basket[j] })
		baskets = append(baskets, basket)
	}

	return baskets
}

func intersects(items []int64, set map[int64]bool) bool {
	for _, item := range items {
		if set[item] {
			return true
		}
	}
	return false
}
