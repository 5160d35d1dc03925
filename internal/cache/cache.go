package cache

import (
	"context"
	"errors"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

// CartCache is the read cache in front of the cart repository.
type CartCache interface {
	Get(ctx context.Context, sellerID int64) (*domain.Cart, error)
	Set(ctx context.Context, sellerID int64, cart *domain.Cart) error
	Delete(ctx context.Context, sellerID int64) error
}

// CatalogCache holds the projected catalog snapshot per seller between
// refreshes of the seller-stock source.
type CatalogCache interface {
	Get(ctx context.Context, sellerID int64) (*domain.CatalogSnapshot, error)
	Set(ctx context.Context, sellerID int64, snapshot *domain.CatalogSnapshot) error
	Delete(ctx context.Context, sellerID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
