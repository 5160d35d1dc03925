// Package cart owns the POS session cart: one cart per seller, at most one
// line per product, quantities never above the stock ceiling captured when
// the product was added. The store trusts the add-time snapshot for the
// whole session; live stock is only consulted again through a catalog
// refresh.
package cart

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dreamer95g/habana-express-app/internal/cache"
	"github.com/dreamer95g/habana-express-app/internal/domain"
	"github.com/dreamer95g/habana-express-app/internal/notify"
	"github.com/dreamer95g/habana-express-app/internal/repository"
)

var (
	// ErrStockLimit rejects an increment that would push a line past its
	// ceiling. Non-fatal: the store is left unchanged.
	ErrStockLimit = errors.New("stock limit reached")

	// ErrInsufficientStock rejects a quantity update beyond the ceiling.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrLineNotFound means the product has no line in the cart.
	ErrLineNotFound = errors.New("item not in cart")
)

type Service struct {
	repo     repository.CartRepository
	cache    cache.CartCache
	notifier notify.Notifier
	logger   *zap.Logger
	sfg      singleflight.Group // prevents cache stampede on concurrent reads
}

func NewService(repo repository.CartRepository, cartCache cache.CartCache, notifier notify.Notifier, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cartCache,
		notifier: notifier,
		logger:   logger,
	}
}

// Cart returns the seller's current cart, an empty one if none exists yet.
func (s *Service) Cart(ctx context.Context, sellerID int64) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(cartGroupKey(sellerID), func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, sellerID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.Int64("seller_id", sellerID), zap.Error(err))
		}

		stored, errGet := s.repo.GetCart(ctx, sellerID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			now := time.Now()
			return &domain.Cart{SellerID: sellerID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		if errSet := s.cache.Set(ctx, sellerID, stored); errSet != nil {
			s.logger.Warn("cart cache set failed", zap.Int64("seller_id", sellerID), zap.Error(errSet))
		}
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem inserts a new line with quantity 1, or increments an existing
// one. An increment past the add-time ceiling is rejected and the cart is
// left unchanged. The "item added" signal fires only when a new line is
// inserted; increments are silent, matching the POS screen.
func (s *Service) AddItem(ctx context.Context, sellerID int64, entry domain.CatalogEntry) (*domain.Cart, error) {
	current, err := s.Cart(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	line := current.Line(entry.ProductID)
	if line == nil {
		current.Lines = append(current.Lines, domain.CartLine{
			ProductID:         entry.ProductID,
			Name:              entry.Name,
			UnitPrice:         entry.UnitPrice,
			AvailableQuantity: entry.AvailableQuantity,
			Quantity:          1,
		})
		if err := s.persist(ctx, current); err != nil {
			return nil, err
		}
		s.notifier.Publish(sellerID, notify.Info(notify.CodeItemAdded, "item added to cart"))
		return current, nil
	}

	if line.Quantity+1 > line.AvailableQuantity {
		s.notifier.Publish(sellerID, notify.Warning(notify.CodeStockLimitReached, "stock limit reached"))
		return current, ErrStockLimit
	}

	line.Quantity++
	if err := s.persist(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// UpdateQuantity applies a signed delta to an existing line. Beyond the
// ceiling the update is rejected; to zero or below it is a no-op, freezing
// the line at its last valid quantity instead of removing it.
func (s *Service) UpdateQuantity(ctx context.Context, sellerID, productID int64, delta int32) (*domain.Cart, error) {
	current, err := s.Cart(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	line := current.Line(productID)
	if line == nil {
		return current, ErrLineNotFound
	}

	newQuantity := line.Quantity + delta
	if newQuantity > line.AvailableQuantity {
		s.notifier.Publish(sellerID, notify.Warning(notify.CodeInsufficientStock, "insufficient stock"))
		return current, ErrInsufficientStock
	}
	if newQuantity <= 0 {
		return current, nil
	}

	line.Quantity = newQuantity
	if err := s.persist(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// RemoveItem drops the product's line. Removing an absent product is a
// no-op.
func (s *Service) RemoveItem(ctx context.Context, sellerID, productID int64) (*domain.Cart, error) {
	current, err := s.Cart(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	kept := current.Lines[:0]
	removed := false
	for _, line := range current.Lines {
		if line.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	if !removed {
		return current, nil
	}

	current.Lines = kept
	if err := s.persist(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Clear destroys the seller's cart entirely.
func (s *Service) Clear(ctx context.Context, sellerID int64) error {
	if err := s.repo.DeleteCart(ctx, sellerID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return err
	}
	s.invalidateCache(sellerID)
	return nil
}

func (s *Service) persist(ctx context.Context, cart *domain.Cart) error {
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		s.logger.Error("cart upsert failed", zap.Int64("seller_id", cart.SellerID), zap.Error(err))
		return err
	}
	s.invalidateCache(cart.SellerID)
	return nil
}

func (s *Service) invalidateCache(sellerID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sellerID); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.Int64("seller_id", sellerID), zap.Error(err))
	}
}

func cartGroupKey(sellerID int64) string {
	return "cart:" + strconv.FormatInt(sellerID, 10)
}
