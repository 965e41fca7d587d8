package cart

import (
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// Pricing turns a snapshot into monetary totals. Shipping is a flat fee
// charged only for a non-empty order.
type Pricing struct {
	Shipping decimal.Decimal
}

func NewPricing(shipping decimal.Decimal) Pricing {
	return Pricing{Shipping: shipping}
}

func Subtotal(snap models.Snapshot) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range snap.Lines {
		sum = sum.Add(line.LineTotal())
	}
	return sum
}

func (p Pricing) Totals(snap models.Snapshot) models.Totals {
	subtotal := Subtotal(snap)
	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = p.Shipping
	}
	return models.Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}
