package models

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog item as served by the storefront catalog API.
type Product struct {
	ID          int             `json:"id" bson:"id"`
	Title       string          `json:"title" bson:"title"`
	Price       decimal.Decimal `json:"price" bson:"price"`
	Description string          `json:"description" bson:"description"`
	Category    Category        `json:"category" bson:"category"`
	Images      []string        `json:"images,omitempty" bson:"images,omitempty"`
}

type Category struct {
	ID    int    `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Image string `json:"image" bson:"image"`
}

// Storefront is the landing page payload: the filtered products, every
// category and the upper bound for the price range control.
type Storefront struct {
	Products   []Product       `json:"products"`
	Categories []Category      `json:"categories"`
	MaxPrice   decimal.Decimal `json:"max_price"`
}
