package domain

import "time"

// CartLine is one product's quantity commitment within an active POS session.
// UnitPrice and AvailableQuantity are copied from the catalog entry at add
// time; the line trusts that snapshot for the rest of the session.
type CartLine struct {
	ProductID         int64   `bson:"product_id" json:"product_id"`
	Name              string  `bson:"name" json:"name"`
	UnitPrice         float64 `bson:"unit_price" json:"unit_price"`
	AvailableQuantity int32   `bson:"available_quantity" json:"available_quantity"`
	Quantity          int32   `bson:"quantity" json:"quantity"`
}

// Subtotal returns unit price times quantity for the line.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Cart holds the lines of one seller's POS session. Insertion order of
// Lines is preserved for display; at most one line exists per product.
type Cart struct {
	SellerID  int64      `bson:"seller_id" json:"seller_id"`
	Lines     []CartLine `bson:"lines" json:"lines"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// Line returns a pointer into Lines for the given product, or nil.
func (c *Cart) Line(productID int64) *CartLine {
	if c == nil {
		return nil
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

// CloneLines copies the cart's lines, so a caller can hold a snapshot that
// later cart edits cannot touch.
func (c *Cart) CloneLines() []CartLine {
	if c == nil || len(c.Lines) == 0 {
		return nil
	}
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return lines
}
