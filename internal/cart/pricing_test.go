package cart

import (
	"testing"

	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPricingTotals(t *testing.T) {
	pricing := NewPricing(decimal.NewFromInt(10))

	tests := []struct {
		name         string
		snap         models.Snapshot
		wantSubtotal string
		wantShipping string
		wantTotal    string
	}{
		{
			name:         "empty cart has no shipping",
			snap:         models.Snapshot{},
			wantSubtotal: "0",
			wantShipping: "0",
			wantTotal:    "0",
		},
		{
			name: "two lines",
			snap: models.Snapshot{
				Lines: []models.CartLine{
					{Product: product(1, "9.99"), Quantity: 2},
					{Product: product(2, "5.00"), Quantity: 1},
				},
				Count: 3,
			},
			wantSubtotal: "24.98",
			wantShipping: "10",
			wantTotal:    "34.98",
		},
		{
			name: "free products ship free",
			snap: models.Snapshot{
				Lines: []models.CartLine{{Product: product(1, "0"), Quantity: 3}},
				Count: 3,
			},
			wantSubtotal: "0",
			wantShipping: "0",
			wantTotal:    "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.Totals(tt.snap)
			assert.Equal(t, tt.wantSubtotal, got.Subtotal.String())
			assert.Equal(t, tt.wantShipping, got.Shipping.String())
			assert.Equal(t, tt.wantTotal, got.Total.String())
		})
	}
}
