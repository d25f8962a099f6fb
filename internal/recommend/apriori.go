package recommend

import (
	"sort"
	"strconv"
	"strings"
)

// Itemset is a frequent product set with its support (fraction of baskets
// containing every item).
type Itemset struct {
	Items   []int64
	Support float64
}

// Rule is a derived association rule: baskets containing the antecedent tend
// to also contain the consequent.
type Rule struct {
	Antecedent []int64
	Consequent []int64
	Confidence float64
	Lift       float64
}

// Miner mines frequent itemsets and derives association rules from them.
// The split mirrors the usual mining-library surface so an external library
// can stand in without touching the recommender.
type Miner interface {
	// MineFrequentItemsets returns every itemset whose support over the
	// baskets is at least minSupport. Baskets are presence-only.
	MineFrequentItemsets(baskets [][]int64, minSupport float64) []Itemset

	// DeriveRules derives association rules from frequent itemsets,
	// keeping those with lift >= minLift.
	DeriveRules(itemsets []Itemset, minLift float64) []Rule
}

// aprioriMiner is a level-wise apriori implementation.
type aprioriMiner struct{}

// NewAprioriMiner creates the in-tree apriori miner.
func NewAprioriMiner() Miner {
	return &aprioriMiner{}
}

func itemsetKey(items []int64) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = strconv.FormatInt(it, 10)
	}
	return strings.Join(parts, ",")
}

// MineFrequentItemsets runs level-wise candidate generation: frequent
// singletons first, then k-itemsets joined from (k-1)-itemsets sharing a
// prefix, counted against the baskets.
func (m *aprioriMiner) MineFrequentItemsets(baskets [][]int64, minSupport float64) []Itemset {
	if len(baskets) == 0 {
		return nil
	}

	n := float64(len(baskets))
	sets := make([]map[int64]bool, len(baskets))
	for i, b := range baskets {
		set := make(map[int64]bool, len(b))
		for _, item := range b {
			set[item] = true
		}
		sets[i] = set
	}

	// L1
	counts := make(map[int64]int)
	for _, set := range sets {
		for item := range set {
			counts[item]++
		}
	}

	var frequent []Itemset
	var level [][]int64
	for item, count := range counts {
		support := float64(count) / n
		if support >= minSupport {
			frequent = append(frequent, Itemset{Items: []int64{item}, Support: support})
			level = append(level, []int64{item})
		}
	}

	sortLevel(level)

	// Lk from L(k-1)
	for len(level) > 0 {
		candidates := joinLevel(level)
		if len(candidates) == 0 {
			break
		}

		var next [][]int64
		for _, cand := range candidates {
			count := 0
			for _, set := range sets {
				if containsAll(set, cand) {
					count++
				}
			}
			support := float64(count) / n
			if support >= minSupport {
				frequent = append(frequent, Itemset{Items: cand, Support: support})
				next = append(next, cand)
			}
		}
		level = next
	}

	sort.Slice(frequent, func(i, j int) bool {
		if len(frequent[i].Items) != len(frequent[j].Items) {
			return len(frequent[i].Items) < len(frequent[j].Items)
		}
		return itemsetKey(frequent[i].Items) < itemsetKey(frequent[j].Items)
	})

	return frequent
}

// DeriveRules splits each frequent itemset of size >= 2 into every
// antecedent/consequent pair. Supports of the parts are always available:
// subsets of a frequent itemset are frequent (downward closure).
func (m *aprioriMiner) DeriveRules(itemsets []Itemset, minLift float64) []Rule {
	support := make(map[string]float64, len(itemsets))
	for _, is := range itemsets {
		support[itemsetKey(is.Items)] = is.Support
	}

	var rules []Rule
	for _, is := range itemsets {
		k := len(is.Items)
		if k < 2 {
			continue
		}

		// Non-empty proper subsets by bitmask; itemsets stay small.
		for mask := 1; mask < (1<<k)-1; mask++ {
			var antecedent, consequent []int64
			for i := 0; i < k; i++ {
				if mask&(1<<i) != 0 {
					antecedent = append(antecedent, is.Items[i])
				} else {
					consequent = append(consequent, is.Items[i])
				}
			}

			antSupport, ok := support[itemsetKey(antecedent)]
			if !ok || antSupport == 0 {
				continue
			}
			conSupport, ok := support[itemsetKey(consequent)]
			if !ok || conSupport == 0 {
				continue
			}

			confidence := is.Support / antSupport
			lift := confidence / conSupport
			if lift >= minLift {
				rules = append(rules, Rule{
					Antecedent: antecedent,
					Consequent: consequent,
					Confidence: confidence,
					Lift:       lift,
				})
			}
		}
	}

	return rules
}

func sortLevel(level [][]int64) {
	sort.Slice(level, func(i, j int) bool {
		return less(level[i], level[j])
	})
}

func less(a, b []int64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// joinLevel builds (k+1)-candidates from sorted k-itemsets sharing their
// first k-1 items, pruning those with an infrequent k-subset.
func joinLevel(level [][]int64) [][]int64 {
	frequent := make(map[string]bool, len(level))
	for _, items := range level {
		frequent[itemsetKey(items)] = true
	}

	var candidates [][]int64
	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			a, b := level[i], level[j]
			k := len(a)
			if !samePrefix(a, b, k-1) {
				continue
			}

			cand := make([]int64, k+1)
			copy(cand, a)
			cand[k] = b[k-1]
			if cand[k-1] > cand[k] {
				cand[k-1], cand[k] = cand[k], cand[k-1]
			}

			if allSubsetsFrequent(cand, frequent) {
				candidates = append(candidates, cand)
			}
		}
	}

	return candidates
}

func samePrefix(a, b []int64, n int) bool {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allSubsetsFrequent(cand []int64, frequent map[string]bool) bool {
	sub := make([]int64, 0, len(cand)-1)
	for skip := range cand {
		sub = sub[:0]
		for i, item := range cand {
			if i != skip {
				sub = append(sub, item)
			}
		}
		if !frequent[itemsetKey(sub)] {
			return false
		}
	}
	return true
}

func containsAll(set map[int64]bool, items []int64) bool {
	for _, item := range items {
		if !set[item] {
			return false
		}
	}
	return true
}
