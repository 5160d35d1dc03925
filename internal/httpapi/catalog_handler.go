// Package httpapi is the JSON surface of the POS engine: catalog reads,
// cart mutations, checkout, sales history, and the notification drain the
// UI polls. Every route acts on behalf of the seller identified by the
// auth middleware.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

// CatalogService is the catalog surface the handlers need.
type CatalogService interface {
	Catalog(ctx context.Context, sellerID int64, search string) ([]domain.CatalogEntry, error)
	Refresh(ctx context.Context, sellerID int64) (*domain.CatalogSnapshot, error)
}

type CatalogHandler struct {
	catalog CatalogService
	timeout time.Duration
}

func NewCatalogHandler(catalog CatalogService, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, timeout: timeout}
}

type catalogResponse struct {
	Entries []domain.CatalogEntry `json:"entries"`
}

func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := sellerIDFromContext(r.Context())
	search := r.URL.Query().Get("search")

	entries, err := h.catalog.Catalog(ctx, sellerID, search)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.CatalogEntry{}
	}

	respondJSON(w, http.StatusOK, catalogResponse{Entries: entries})
}

func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := sellerIDFromContext(r.Context())

	snapshot, err := h.catalog.Refresh(ctx, sellerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	entries := snapshot.Entries
	if entries == nil {
		entries = []domain.CatalogEntry{}
	}
	respondJSON(w, http.StatusOK, catalogResponse{Entries: entries})
}
