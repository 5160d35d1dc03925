package httpapi

import (
	"context"
	"net/http"
	"strconv"
)

type contextKey string

const sellerIDKey contextKey = "seller_id"

// SellerAuth resolves the acting seller from the X-Seller-ID header. The
// engine runs behind the retail backend's gateway, which has already
// authenticated the seller; here we only need the identity.
func SellerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := strconv.ParseInt(r.Header.Get("X-Seller-ID"), 10, 64)
		if err != nil || sellerID <= 0 {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid seller identity")
			return
		}

		ctx := context.WithValue(r.Context(), sellerIDKey, sellerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sellerIDFromContext(ctx context.Context) int64 {
	if sellerID, ok := ctx.Value(sellerIDKey).(int64); ok {
		return sellerID
	}
	return 0
}
