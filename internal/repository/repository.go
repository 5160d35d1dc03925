package repository

import (
	"context"
	"errors"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository persists session carts keyed by seller. One active POS
// session owns each cart, so implementations do not need cross-session
// coordination beyond basic safety.
type CartRepository interface {
	GetCart(ctx context.Context, sellerID int64) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, sellerID int64) error
	Close() error
}
