package repository

import (
	"context"
	"sync"
	"time"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

const (
	// sessionTTL is how long an untouched cart survives before it is
	// treated as an abandoned session.
	sessionTTL = 12 * time.Hour

	// cleanupInterval is how often the background sweep runs.
	cleanupInterval = time.Minute
)

// MemoryRepository keeps session carts in process memory. Abandoned carts
// are swept by a background loop once their session TTL passes. This is the
// default store for single-node deployments.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[int64]*domain.Cart

	ttl         time.Duration
	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewMemoryRepository() *MemoryRepository {
	r := &MemoryRepository{
		carts:       make(map[int64]*domain.Cart),
		ttl:         sessionTTL,
		stopCleanup: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop()

	return r
}

func (r *MemoryRepository) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.expireCarts()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *MemoryRepository) expireCarts() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	for sellerID, cart := range r.carts {
		if cart.UpdatedAt.Before(cutoff) {
			delete(r.carts, sellerID)
		}
	}
}

func (r *MemoryRepository) GetCart(_ context.Context, sellerID int64) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, exists := r.carts[sellerID]
	if !exists {
		return nil, ErrCartNotFound
	}

	// Copy out so callers cannot mutate the stored cart in place.
	clone := *cart
	clone.Lines = cart.CloneLines()
	return &clone, nil
}

func (r *MemoryRepository) UpsertCart(_ context.Context, cart *domain.Cart) error {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *cart
	stored.Lines = cart.CloneLines()
	if existing, ok := r.carts[cart.SellerID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.carts[cart.SellerID] = &stored
	return nil
}

func (r *MemoryRepository) DeleteCart(_ context.Context, sellerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.carts[sellerID]; !exists {
		return ErrCartNotFound
	}
	delete(r.carts, sellerID)
	return nil
}

// Close stops the cleanup loop and waits for it to finish.
func (r *MemoryRepository) Close() error {
	close(r.stopCleanup)
	r.wg.Wait()
	return nil
}
