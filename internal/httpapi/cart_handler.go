package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dreamer95g/habana-express-app/internal/domain"
	"github.com/dreamer95g/habana-express-app/internal/pricing"
)

// CartService is the cart surface the handlers need.
type CartService interface {
	Cart(ctx context.Context, sellerID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, sellerID int64, entry domain.CatalogEntry) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sellerID, productID int64, delta int32) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sellerID, productID int64) (*domain.Cart, error)
	Clear(ctx context.Context, sellerID int64) error
}

// ConfigProvider supplies the commission percentage for the live estimate
// rendered next to the cart total.
type ConfigProvider interface {
	Config(ctx context.Context) domain.SystemConfig
}

type CartHandler struct {
	carts   CartService
	catalog CatalogService
	config  ConfigProvider
	timeout time.Duration
}

func NewCartHandler(carts CartService, catalog CatalogService, config ConfigProvider, timeout time.Duration) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalog, config: config, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Delta int32 `json:"delta"`
}

type cartLineDTO struct {
	ProductID         int64   `json:"product_id"`
	Name              string  `json:"name"`
	UnitPrice         float64 `json:"unit_price"`
	AvailableQuantity int32   `json:"available_quantity"`
	Quantity          int32   `json:"quantity"`
	Subtotal          float64 `json:"subtotal"`
}

type cartResponse struct {
	SellerID             int64         `json:"seller_id"`
	Lines                []cartLineDTO `json:"lines"`
	TotalAmount          float64       `json:"total_amount"`
	EstimatedCommission  float64       `json:"estimated_commission"`
	CommissionPercentage float64       `json:"commission_percentage"`
	Currency             string        `json:"currency"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// toCartResponse derives totals and the commission estimate from the
// current configuration, so every cart change the UI renders carries a
// fresh estimate.
func toCartResponse(cart *domain.Cart, cfg domain.SystemConfig) cartResponse {
	lines := make([]cartLineDTO, len(cart.Lines))
	for i, line := range cart.Lines {
		lines[i] = cartLineDTO{
			ProductID:         line.ProductID,
			Name:              line.Name,
			UnitPrice:         line.UnitPrice,
			AvailableQuantity: line.AvailableQuantity,
			Quantity:          line.Quantity,
			Subtotal:          line.Subtotal(),
		}
	}
	totals := pricing.Calculate(cart.Lines, cfg.CommissionPercentage)
	return cartResponse{
		SellerID:             cart.SellerID,
		Lines:                lines,
		TotalAmount:          totals.TotalAmount,
		EstimatedCommission:  totals.EstimatedCommission,
		CommissionPercentage: cfg.CommissionPercentage,
		Currency:             domain.SettlementCurrency,
		UpdatedAt:            cart.UpdatedAt,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := sellerIDFromContext(r.Context())

	cart, err := h.carts.Cart(ctx, sellerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart, h.config.Config(ctx)))
}

// AddItem resolves the product against the current catalog projection, so
// the line captures the projected price and stock ceiling.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := sellerIDFromContext(r.Context())

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	entries, err := h.catalog.Catalog(ctx, sellerID, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var entry *domain.CatalogEntry
	for i := range entries {
		if entries[i].ProductID == req.ProductID {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		respondError(w, http.StatusNotFound, "product_unavailable", "product is not in the seller's catalog")
		return
	}

	cart, err := h.carts.AddItem(ctx, sellerID, *entry)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCartResponse(cart, h.config.Config(ctx)))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := sellerIDFromContext(r.Context())

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Delta == 0 {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must be non-zero")
		return
	}

	cart, err := h.carts.UpdateQuantity(ctx, sellerID, productID, req.Delta)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart, h.config.Config(ctx)))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := sellerIDFromContext(r.Context())

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(ctx, sellerID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart, h.config.Config(ctx)))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := sellerIDFromContext(r.Context())

	if err := h.carts.Clear(ctx, sellerID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
