// Package pricing derives order totals and the seller's estimated
// commission from cart contents and system configuration. Everything here
// is pure; callers recompute on every cart change.
package pricing

import "github.com/dreamer95g/habana-express-app/internal/domain"

// Totals carries the derived monetary values for a cart. Values are
// unrounded; display rounding is a presentation concern.
type Totals struct {
	TotalAmount         float64 `json:"total_amount"`
	EstimatedCommission float64 `json:"estimated_commission"`
}

// Calculate sums unit price times quantity over all lines and applies the
// configured commission percentage. Unit prices are already expressed in
// the settlement currency, so no conversion happens here. O(len(lines)).
func Calculate(lines []domain.CartLine, commissionPct float64) Totals {
	var total float64
	for _, line := range lines {
		total += line.Subtotal()
	}
	return Totals{
		TotalAmount:         total,
		EstimatedCommission: total * (commissionPct / 100),
	}
}
