package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dreamer95g/habana-express-app/internal/cache"
	"github.com/dreamer95g/habana-express-app/internal/domain"
)

// StockSource is the seller-stock collaborator: it returns the products
// currently assigned to a seller, with quantities on hand.
type StockSource interface {
	SellerProducts(ctx context.Context, sellerID int64) ([]domain.SellerStockRecord, error)
}

// Service serves projected catalog snapshots, caching them per seller and
// collapsing concurrent refreshes of the same seller into one upstream
// call.
type Service struct {
	source StockSource
	cache  cache.CatalogCache
	logger *zap.Logger
	sfg    singleflight.Group
}

func NewService(source StockSource, catalogCache cache.CatalogCache, logger *zap.Logger) *Service {
	return &Service{
		source: source,
		cache:  catalogCache,
		logger: logger,
	}
}

// Catalog returns the seller's catalog, optionally narrowed by a search
// term. Serves the cached snapshot when fresh, otherwise fetches and
// projects a new one.
func (s *Service) Catalog(ctx context.Context, sellerID int64, search string) ([]domain.CatalogEntry, error) {
	snapshot, err := s.snapshot(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return Filter(snapshot.Entries, search), nil
}

func (s *Service) snapshot(ctx context.Context, sellerID int64) (*domain.CatalogSnapshot, error) {
	v, err, _ := s.sfg.Do(groupKey(sellerID), func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, sellerID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("catalog cache get failed", zap.Int64("seller_id", sellerID), zap.Error(err))
		}

		return s.fetch(ctx, sellerID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CatalogSnapshot), nil
}

// Refresh drops the cached snapshot and fetches a new one from the stock
// source. Called after a successful checkout, when stock levels may have
// changed.
func (s *Service) Refresh(ctx context.Context, sellerID int64) (*domain.CatalogSnapshot, error) {
	v, err, _ := s.sfg.Do(groupKey(sellerID), func() (interface{}, error) {
		return s.fetch(ctx, sellerID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CatalogSnapshot), nil
}

// Invalidate removes the seller's cached snapshot so the next read hits
// the stock source.
func (s *Service) Invalidate(ctx context.Context, sellerID int64) {
	if err := s.cache.Delete(ctx, sellerID); err != nil {
		s.logger.Warn("catalog cache invalidate failed", zap.Int64("seller_id", sellerID), zap.Error(err))
	}
}

func (s *Service) fetch(ctx context.Context, sellerID int64) (*domain.CatalogSnapshot, error) {
	records, err := s.source.SellerProducts(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.CatalogSnapshot{
		SellerID:  sellerID,
		Entries:   Project(records),
		FetchedAt: time.Now().UTC(),
	}

	if err := s.cache.Set(ctx, sellerID, snapshot); err != nil {
		s.logger.Warn("catalog cache set failed", zap.Int64("seller_id", sellerID), zap.Error(err))
	}
	return snapshot, nil
}

func groupKey(sellerID int64) string {
	return "catalog:" + strconv.FormatInt(sellerID, 10)
}
