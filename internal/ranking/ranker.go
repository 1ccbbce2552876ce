package ranking

import (
	"sort"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/logger"
)

// Scoring constants. Sales volume is capped so a single viral listing cannot
// outrank a deep discount.
const (
	SoldQuantityCap    = 1000
	SoldQuantityWeight = 0.01
)

// Ranker filters raw marketplace results down to genuine promotions and
// orders them by score.
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(log *logger.Logger) *Ranker {
	return &Ranker{logger: log}
}

// FilterAndScore drops ineligible records, computes discount and score, and
// returns the survivors sorted by score descending. The sort is stable: ties
// keep input order.
func (r *Ranker) FilterAndScore(products []contracts.RawProduct) []contracts.ScoredProduct {
	scored := make([]contracts.ScoredProduct, 0, len(products))

	for _, p := range products {
		if !eligible(p) {
			continue
		}

		discountPct := (p.OriginalPrice - p.Price) / p.OriginalPrice * 100
		score := discountPct + capSoldQuantity(p.SoldQuantity)*SoldQuantityWeight

		scored = append(scored, contracts.ScoredProduct{
			RawProduct:  p,
			DiscountPct: discountPct,
			Score:       score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	r.logger.WithFields(map[string]interface{}{
		"total_input": len(products),
		"eligible":    len(scored),
	}).Debug("Promotion filtering completed")

	return scored
}

// SelectTop returns the first min(n, len) records, order preserved.
// Fewer than n available is expected for low-volume niches.
func (r *Ranker) SelectTop(scored []contracts.ScoredProduct, n int) []contracts.ScoredProduct {
	if n < 0 {
		n = 0
	}
	if len(scored) <= n {
		return scored
	}
	return scored[:n]
}

// eligible is the promotion predicate: a real list price above the selling
// price plus the fields needed for display and link building.
func eligible(p contracts.RawProduct) bool {
	return p.OriginalPrice > 0 &&
		p.OriginalPrice > p.Price &&
		p.Thumbnail != "" &&
		p.Permalink != "" &&
		p.Title != ""
}

func capSoldQuantity(qty int) float64 {
	if qty > SoldQuantityCap {
		return SoldQuantityCap
	}
	if qty < 0 {
		return 0
	}
	return float64(qty)
}
