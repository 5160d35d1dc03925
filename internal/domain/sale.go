package domain

import (
	"time"

	"github.com/google/uuid"
)

// SettlementCurrency is the currency unit prices and totals are already
// expressed in. The engine never converts currencies.
const SettlementCurrency = "CUP"

// PaymentMethod is how the buyer pays at the counter.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentTransfer
}

func (m PaymentMethod) String() string {
	return string(m)
}

// SaleItem is the {product, quantity} pair submitted to the sale-creation
// collaborator.
type SaleItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

// CheckoutDraft is the immutable snapshot handed to the sale-creation
// collaborator. DraftID doubles as the idempotency key for the submission.
type CheckoutDraft struct {
	DraftID             uuid.UUID
	SellerID            int64
	BuyerPhone          string
	PaymentMethod       PaymentMethod
	Lines               []CartLine
	TotalAmount         float64
	ExchangeRate        float64
	EstimatedCommission float64
	Notes               string
	CapturedAt          time.Time
}

// Items maps the draft's lines to the wire shape of the sale-creation sink.
func (d *CheckoutDraft) Items() []SaleItem {
	items := make([]SaleItem, len(d.Lines))
	for i, line := range d.Lines {
		items[i] = SaleItem{ProductID: line.ProductID, Quantity: line.Quantity}
	}
	return items
}

// SaleConfirmation is the acknowledgment returned by the sale-creation
// collaborator on success.
type SaleConfirmation struct {
	SaleID      int64   `json:"sale_id"`
	TotalAmount float64 `json:"total_amount"`
}

// SaleRecord is the journal row written after the backend confirms a sale.
type SaleRecord struct {
	ID                  uuid.UUID        `json:"id"`
	DraftID             uuid.UUID        `json:"draft_id"`
	SaleID              int64            `json:"sale_id"`
	SellerID            int64            `json:"seller_id"`
	BuyerPhone          string           `json:"buyer_phone"`
	PaymentMethod       PaymentMethod    `json:"payment_method"`
	TotalAmount         float64          `json:"total_amount"`
	ExchangeRate        float64          `json:"exchange_rate"`
	EstimatedCommission float64          `json:"estimated_commission"`
	Currency            string           `json:"currency"`
	Notes               string           `json:"notes"`
	Items               []SaleRecordItem `json:"items"`
	CreatedAt           time.Time        `json:"created_at"`
}

// SaleRecordItem keeps name and unit price alongside the quantity so a
// receipt can be rendered without asking the backend again.
type SaleRecordItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int32   `json:"quantity"`
}
