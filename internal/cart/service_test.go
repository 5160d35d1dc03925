package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dreamer95g/habana-express-app/internal/cache"
	"github.com/dreamer95g/habana-express-app/internal/domain"
	"github.com/dreamer95g/habana-express-app/internal/notify"
	"github.com/dreamer95g/habana-express-app/internal/repository"
)

type mockRepo struct {
	mu    sync.RWMutex
	carts map[int64]*domain.Cart
	err   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{carts: make(map[int64]*domain.Cart)}
}

func (m *mockRepo) GetCart(_ context.Context, sellerID int64) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[sellerID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	clone := *cart
	clone.Lines = cart.CloneLines()
	return &clone, nil
}

func (m *mockRepo) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	clone := *cart
	clone.Lines = cart.CloneLines()
	m.carts[cart.SellerID] = &clone
	return nil
}

func (m *mockRepo) DeleteCart(_ context.Context, sellerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[sellerID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, sellerID)
	return nil
}

func (m *mockRepo) Close() error { return nil }

type mockCache struct {
	mu      sync.Mutex
	carts   map[int64]*domain.Cart
	gets    int
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{carts: make(map[int64]*domain.Cart)}
}

func (m *mockCache) Get(_ context.Context, sellerID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	cart, ok := m.carts[sellerID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	clone := *cart
	clone.Lines = cart.CloneLines()
	return &clone, nil
}

func (m *mockCache) Set(_ context.Context, sellerID int64, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *cart
	clone.Lines = cart.CloneLines()
	m.carts[sellerID] = &clone
	return nil
}

func (m *mockCache) Delete(_ context.Context, sellerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.carts, sellerID)
	return nil
}

func setupService(t *testing.T) (*Service, *mockRepo, *mockCache, *notify.Bus) {
	t.Helper()
	repo := newMockRepo()
	c := newMockCache()
	bus := notify.NewBus()
	svc := NewService(repo, c, bus, zap.NewNop())
	return svc, repo, c, bus
}

func entry(productID int64, price float64, available int32) domain.CatalogEntry {
	return domain.CatalogEntry{
		ProductID:         productID,
		Name:              "Producto",
		UnitPrice:         price,
		AvailableQuantity: available,
	}
}

func TestCart_DefaultsToEmpty(t *testing.T) {
	svc, _, _, _ := setupService(t)

	cart, err := svc.Cart(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, int64(1), cart.SellerID)
}

func TestAddItem_NewLineStartsAtOne(t *testing.T) {
	svc, _, _, bus := setupService(t)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, 1, entry(10, 100, 3))
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int32(1), cart.Lines[0].Quantity)
	assert.Equal(t, 100.0, cart.Lines[0].UnitPrice)
	assert.Equal(t, int32(3), cart.Lines[0].AvailableQuantity)

	events := bus.Drain(1)
	require.Len(t, events, 1)
	assert.Equal(t, notify.CodeItemAdded, events[0].Code)
}

// Four adds against a ceiling of 3: the line tops out at 3 and the fourth
// call is rejected with a stock-limit signal.
func TestAddItem_CeilingInvariant(t *testing.T) {
	svc, _, _, bus := setupService(t)
	ctx := context.Background()
	e := entry(10, 100, 3)

	for i := 0; i < 3; i++ {
		_, err := svc.AddItem(ctx, 1, e)
		require.NoError(t, err)
	}

	cart, err := svc.AddItem(ctx, 1, e)
	assert.ErrorIs(t, err, ErrStockLimit)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int32(3), cart.Lines[0].Quantity)

	events := bus.Drain(1)
	require.Len(t, events, 2) // one "item added", one "stock limit reached"
	assert.Equal(t, notify.CodeItemAdded, events[0].Code)
	assert.Equal(t, notify.CodeStockLimitReached, events[1].Code)
}

func TestAddItem_NoDuplicateLines(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, entry(10, 100, 5))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 1, entry(10, 100, 5))
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, 1, entry(20, 250, 2))
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, int64(10), cart.Lines[0].ProductID)
	assert.Equal(t, int32(2), cart.Lines[0].Quantity)
	assert.Equal(t, int64(20), cart.Lines[1].ProductID)
}

func TestAddItem_SnapshotCapturedAtAddTime(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, entry(10, 100, 5))
	require.NoError(t, err)

	// A later catalog snapshot with different price/stock does not rewrite
	// the line; the add-time snapshot rules the session.
	cart, err := svc.AddItem(ctx, 1, entry(10, 175, 99))
	require.NoError(t, err)
	assert.Equal(t, 100.0, cart.Lines[0].UnitPrice)
	assert.Equal(t, int32(5), cart.Lines[0].AvailableQuantity)
	assert.Equal(t, int32(2), cart.Lines[0].Quantity)
}

func TestUpdateQuantity_WithinCeiling(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, entry(10, 100, 5))
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, 1, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(4), cart.Lines[0].Quantity)
}

func TestUpdateQuantity_RejectsBeyondCeiling(t *testing.T) {
	svc, _, _, bus := setupService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, entry(10, 100, 3))
	require.NoError(t, err)
	bus.Drain(1)

	cart, err := svc.UpdateQuantity(ctx, 1, 10, 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, int32(1), cart.Lines[0].Quantity)

	events := bus.Drain(1)
	require.Len(t, events, 1)
	assert.Equal(t, notify.CodeInsufficientStock, events[0].Code)
}

// Decrement below 1 freezes the line at its last valid quantity rather
// than deleting it.
func TestUpdateQuantity_FloorAtOne(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, entry(10, 100, 5))
	require.NoError(t, err)
	_, err = svc.UpdateQuantity(ctx, 1, 10, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, 1, 10, -5)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int32(2), cart.Lines[0].Quantity)
}

func TestUpdateQuantity_MissingLine(t *testing.T) {
	svc, _, _, _ := setupService(t)

	_, err := svc.UpdateQuantity(context.Background(), 1, 999, 1)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, entry(10, 100, 5))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 1, entry(20, 50, 5))
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(20), cart.Lines[0].ProductID)

	// Removing an absent product is a no-op.
	cart, err = svc.RemoveItem(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
}

func TestClear_EmptiesCartAndCache(t *testing.T) {
	svc, repo, c, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, entry(10, 100, 5))
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, 1))
	assert.Empty(t, repo.carts)
	assert.Greater(t, c.deletes, 0)

	cart, err := svc.Cart(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	// Clearing an already empty cart stays silent.
	require.NoError(t, svc.Clear(ctx, 1))
}

func TestMutationsInvalidateCache(t *testing.T) {
	svc, _, c, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, entry(10, 100, 5))
	require.NoError(t, err)

	// The write path must not leave a stale cached cart behind.
	_, cached := c.carts[1]
	assert.False(t, cached)

	got, err := svc.Cart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
}

func TestSellersAreIsolated(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, entry(10, 100, 5))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 2, entry(20, 300, 2))
	require.NoError(t, err)

	cartA, err := svc.Cart(ctx, 1)
	require.NoError(t, err)
	cartB, err := svc.Cart(ctx, 2)
	require.NoError(t, err)

	require.Len(t, cartA.Lines, 1)
	require.Len(t, cartB.Lines, 1)
	assert.Equal(t, int64(10), cartA.Lines[0].ProductID)
	assert.Equal(t, int64(20), cartB.Lines[0].ProductID)
}
