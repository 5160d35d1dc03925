package domain

import "time"

// SellerStockRecord is one assignment row returned by the seller-stock
// source: a product held by the seller together with the quantity on hand.
type SellerStockRecord struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	PhotoURL  string  `json:"photo_url"`
	SalePrice float64 `json:"sale_price"`
	Quantity  int32   `json:"quantity"`
}

// CatalogEntry is a product visible to a seller with known price and stock
// ceiling. Entries are rebuilt per snapshot and never mutated afterwards.
type CatalogEntry struct {
	ProductID         int64   `json:"product_id"`
	Name              string  `json:"name"`
	UnitPrice         float64 `json:"unit_price"`
	AvailableQuantity int32   `json:"available_quantity"`
	PhotoURL          string  `json:"photo_url,omitempty"`
}

// CatalogSnapshot is the projected catalog of one seller at a point in time.
type CatalogSnapshot struct {
	SellerID  int64          `json:"seller_id"`
	Entries   []CatalogEntry `json:"entries"`
	FetchedAt time.Time      `json:"fetched_at"`
}
