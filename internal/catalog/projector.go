// Package catalog turns a seller's assigned-stock records into the priced,
// searchable product list the POS screen sells from.
package catalog

import (
	"strings"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

// Project maps seller-stock records to catalog entries, dropping anything
// with no quantity on hand. Out-of-stock products are invisible to the
// seller, not greyed out. Source order is preserved. An empty or absent
// input yields an empty catalog, not an error.
func Project(records []domain.SellerStockRecord) []domain.CatalogEntry {
	entries := make([]domain.CatalogEntry, 0, len(records))
	for _, rec := range records {
		if rec.Quantity <= 0 {
			continue
		}
		entries = append(entries, domain.CatalogEntry{
			ProductID:         rec.ProductID,
			Name:              rec.Name,
			UnitPrice:         rec.SalePrice,
			AvailableQuantity: rec.Quantity,
			PhotoURL:          rec.PhotoURL,
		})
	}
	return entries
}

// Filter narrows entries by case-insensitive substring match on the name.
// An empty search term returns the input unchanged.
func Filter(entries []domain.CatalogEntry, search string) []domain.CatalogEntry {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return entries
	}

	filtered := make([]domain.CatalogEntry, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Name), search) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}
