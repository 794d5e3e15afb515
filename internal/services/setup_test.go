package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/services"
)

// memCache is an in-process StockCache with the same fill/invalidate rules as redis.
type memCache struct {
	mu            sync.Mutex
	levels        map[string]int
	versions      map[string]int64
	invalidations int

	beforeFill func(productID string) // runs unlocked at the start of Fill
}

func newMemCache() *memCache {
	return &memCache{levels: map[string]int{}, versions: map[string]int64{}}
}

func (m *memCache) Stock(_ context.Context, id string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.levels[id]
	return q, ok, nil
}

func (m *memCache) Version(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[id], nil
}

func (m *memCache) Fill(_ context.Context, id string, qty int, ver int64) (bool, error) {
	if m.beforeFill != nil {
		m.beforeFill(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[id] != ver {
		return false, nil
	}
	m.levels[id] = qty
	return true, nil
}

func (m *memCache) Invalidate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[id]++
	delete(m.levels, id)
	m.invalidations++
	return nil
}

func (m *memCache) invalidationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidations
}

func (m *memCache) cached(id string) (int, bool) {
	q, ok, _ := m.Stock(context.Background(), id)
	return q, ok
}

type stack struct {
	db      *sqlx.DB
	cache   *memCache
	users   *repos.UserRepo
	prods   *repos.ProductRepo
	inv     *services.InventoryService
	orders  *services.OrderService
	catalog *services.CatalogService
}

func newStack(t *testing.T, priceSource string) *stack {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cache := newMemCache()
	prods := repos.NewProductRepo(db)
	inv := services.NewInventoryService(repos.NewInventoryRepo(db), cache, 5)
	return &stack{
		db:      db,
		cache:   cache,
		users:   repos.NewUserRepo(db),
		prods:   prods,
		inv:     inv,
		orders:  services.NewOrderService(prods, repos.NewOrderRepo(db), inv, priceSource),
		catalog: services.NewCatalogService(prods, inv),
	}
}

func newDefaultStack(t *testing.T) *stack { return newStack(t, config.PriceFromClient) }

func (s *stack) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := s.users.ByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (s *stack) stock(t *testing.T, productID string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.Get(&n, `SELECT stock_quantity FROM products WHERE id = ?`, productID))
	return n
}

func (s *stack) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func line(id string, qty int) services.LineRequest {
	return services.LineRequest{ProductID: id, Quantity: qty}
}
