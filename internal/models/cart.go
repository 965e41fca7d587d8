package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product in a cart. Product holds the snapshot captured
// on the first add; only Quantity changes afterwards.
type CartLine struct {
	Product  Product `json:"product" bson:"product"`
	Quantity int     `json:"quantity" bson:"quantity"`
}

// LineTotal returns price × quantity for the line.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is an immutable view of a cart handed out after each mutation.
type Snapshot struct {
	Lines []CartLine `json:"lines"`
	Count int        `json:"count"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// CartView is what the API returns for a cart.
type CartView struct {
	SessionID string `json:"session_id"`
	Snapshot
	Totals Totals `json:"totals"`
}

// CartDocument is the persisted form of a session cart.
type CartDocument struct {
	SessionID string     `bson:"_id" json:"session_id"`
	Lines     []CartLine `bson:"lines" json:"lines"`
	Count     int        `bson:"count" json:"count"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

func (CartDocument) CollectionName() string {
	return "carts"
}
