package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/dreamer95g/habana-express-app/internal/backend"
	"github.com/dreamer95g/habana-express-app/internal/cart"
	"github.com/dreamer95g/habana-express-app/internal/checkout"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// An encode failure here means the client went away mid-write.
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleServiceError maps engine errors to HTTP statuses. Invariant
// rejections are conflicts, validation failures are bad requests, backend
// trouble is a gateway problem.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrStockLimit):
		respondError(w, http.StatusConflict, "stock_limit_reached", err.Error())
	case errors.Is(err, cart.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, checkout.ErrCheckoutInFlight):
		respondError(w, http.StatusConflict, "checkout_busy", err.Error())
	case errors.Is(err, cart.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "item_not_in_cart", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "cart_empty", err.Error())
	case errors.Is(err, checkout.ErrMissingBuyerPhone):
		respondError(w, http.StatusBadRequest, "missing_buyer_phone", err.Error())
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		respondError(w, http.StatusBadRequest, "invalid_payment_method", err.Error())
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "backend_unavailable", "sale backend is temporarily unavailable")
	default:
		var gqlErr *backend.GraphQLError
		if errors.As(err, &gqlErr) {
			respondError(w, http.StatusBadGateway, "backend_rejected", gqlErr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
