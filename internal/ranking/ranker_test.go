package ranking

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/logger"
)

func testRanker() *Ranker {
	return NewRanker(logger.NewWithWriter(io.Discard, "error"))
}

func promo(id string, price, originalPrice float64, sold int) contracts.RawProduct {
	return contracts.RawProduct{
		ExternalID:    id,
		Title:         "Product " + id,
		Price:         price,
		OriginalPrice: originalPrice,
		Permalink:     "https://example.com/" + id,
		Thumbnail:     "https://example.com/" + id + ".jpg",
		SoldQuantity:  sold,
	}
}

func TestFilterAndScore_Eligibility(t *testing.T) {
	tests := []struct {
		name    string
		product contracts.RawProduct
		want    bool
	}{
		{"discounted product", promo("1", 80, 120, 10), true},
		{"no original price", promo("2", 80, 0, 10), false},
		{"original equals price", promo("3", 80, 80, 10), false},
		{"original below price", promo("4", 120, 80, 10), false},
		{"missing thumbnail", func() contracts.RawProduct {
			p := promo("5", 80, 120, 10)
			p.Thumbnail = ""
			return p
		}(), false},
		{"missing permalink", func() contracts.RawProduct {
			p := promo("6", 80, 120, 10)
			p.Permalink = ""
			return p
		}(), false},
		{"missing title", func() contracts.RawProduct {
			p := promo("7", 80, 120, 10)
			p.Title = ""
			return p
		}(), false},
	}

	r := testRanker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.FilterAndScore([]contracts.RawProduct{tt.product})
			if tt.want {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestFilterAndScore_Score(t *testing.T) {
	r := testRanker()

	// (150-120)/150*100 = 20% discount, 80 sold -> 20 + 0.8
	scored := r.FilterAndScore([]contracts.RawProduct{promo("1", 120, 150, 80)})
	require.Len(t, scored, 1)

	assert.InDelta(t, 20.0, scored[0].DiscountPct, 1e-9)
	assert.InDelta(t, 20.8, scored[0].Score, 1e-9)
}

func TestFilterAndScore_SoldQuantityCap(t *testing.T) {
	r := testRanker()

	capped := r.FilterAndScore([]contracts.RawProduct{promo("1", 80, 120, 1200)})
	atCap := r.FilterAndScore([]contracts.RawProduct{promo("2", 80, 120, 1000)})
	require.Len(t, capped, 1)
	require.Len(t, atCap, 1)

	// Above the cap counts the same as the cap itself.
	assert.InDelta(t, atCap[0].Score, capped[0].Score, 1e-9)
	assert.InDelta(t, capped[0].DiscountPct+10.0, capped[0].Score, 1e-9)
}

func TestFilterAndScore_SortsDescendingStable(t *testing.T) {
	r := testRanker()

	input := []contracts.RawProduct{
		promo("small", 90, 100, 0),  // 10%
		promo("tie-a", 50, 100, 0),  // 50%
		promo("tie-b", 50, 100, 0),  // 50%, same score as tie-a
		promo("large", 20, 100, 0),  // 80%
	}

	scored := r.FilterAndScore(input)
	require.Len(t, scored, 4)

	assert.Equal(t, "large", scored[0].ExternalID)
	// Equal scores keep input order.
	assert.Equal(t, "tie-a", scored[1].ExternalID)
	assert.Equal(t, "tie-b", scored[2].ExternalID)
	assert.Equal(t, "small", scored[3].ExternalID)
}

func TestSelectTop(t *testing.T) {
	r := testRanker()

	scored := r.FilterAndScore([]contracts.RawProduct{
		promo("1", 50, 100, 0),
		promo("2", 60, 100, 0),
		promo("3", 70, 100, 0),
	})

	assert.Len(t, r.SelectTop(scored, 2), 2)
	assert.Len(t, r.SelectTop(scored, 3), 3)
	// Fewer available than requested returns all of them.
	assert.Len(t, r.SelectTop(scored, 10), 3)
	assert.Empty(t, r.SelectTop(scored, 0))
	assert.Empty(t, r.SelectTop(scored, -1))
}
