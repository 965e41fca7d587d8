package catalog

import (
	"strings"

	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultMaxPrice is the lowest upper bound offered for price filtering.
var DefaultMaxPrice = decimal.NewFromInt(100)

// Filter narrows a product list. Zero values match everything.
type Filter struct {
	CategoryID *int
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	// Search is matched case-insensitively against the product title.
	Search string
}

func (f Filter) Match(p models.Product) bool {
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.CategoryID != nil && p.Category.ID != *f.CategoryID {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// Apply returns the matching products in catalog order.
func (f Filter) Apply(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// MaxPrice is the upper bound for a price range control: the highest price
// in products, never below DefaultMaxPrice.
func MaxPrice(products []models.Product) decimal.Decimal {
	maxPrice := DefaultMaxPrice
	for _, p := range products {
		if p.Price.GreaterThan(maxPrice) {
			maxPrice = p.Price
		}
	}
	return maxPrice
}
