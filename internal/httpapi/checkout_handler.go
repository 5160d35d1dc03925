package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dreamer95g/habana-express-app/internal/checkout"
	"github.com/dreamer95g/habana-express-app/internal/domain"
)

// CheckoutService runs one cart-to-sale submission.
type CheckoutService interface {
	Submit(ctx context.Context, sellerID int64, req checkout.Request) (domain.SaleConfirmation, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkoutSvc CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkoutSvc, timeout: timeout}
}

type CheckoutRequestDTO struct {
	BuyerPhone    string `json:"buyer_phone"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
}

type checkoutResponse struct {
	SaleID      int64   `json:"sale_id"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := sellerIDFromContext(r.Context())

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	confirmation, err := h.checkout.Submit(ctx, sellerID, checkout.Request{
		BuyerPhone:    req.BuyerPhone,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, checkoutResponse{
		SaleID:      confirmation.SaleID,
		TotalAmount: confirmation.TotalAmount,
		Currency:    domain.SettlementCurrency,
	})
}
