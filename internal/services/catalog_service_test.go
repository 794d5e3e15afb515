package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func ptr[T any](v T) *T { return &v }

func TestCatalog_CreateRequiresSeller(t *testing.T) {
	s := newDefaultStack(t)
	ctx := context.Background()
	in := services.ProductInput{
		Name:          ptr("Atari 2600"),
		Price:         ptr(decimal.RequireFromString("89.5")),
		StockQuantity: ptr(3),
	}

	_, err := s.catalog.Create(ctx, s.user(t, "u-alice"), in)
	var fe *domain.ForbiddenError
	require.ErrorAs(t, err, &fe)

	p, err := s.catalog.Create(ctx, s.user(t, "u-sam"), in)
	require.NoError(t, err)
	assert.Equal(t, "u-sam", p.SellerID)
	assert.Equal(t, "89.50", p.Price.StringFixed(2))

	got, err := s.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.StockQuantity)
	assert.NotEmpty(t, got.CreatedAt)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)
	assert.Zero(t, s.cache.invalidationCount(), "a new product has nothing cached to drop")
}

func TestCatalog_CreateValidates(t *testing.T) {
	s := newDefaultStack(t)
	sam := s.user(t, "u-sam")
	var ve *domain.ValidationError

	_, err := s.catalog.Create(context.Background(), sam, services.ProductInput{Name: ptr("No price")})
	require.ErrorAs(t, err, &ve)

	_, err = s.catalog.Create(context.Background(), sam, services.ProductInput{
		Name: ptr("Bad stock"), Price: ptr(decimal.NewFromInt(1)), StockQuantity: ptr(-1),
	})
	require.ErrorAs(t, err, &ve)
}

func TestCatalog_UpdateOwnership(t *testing.T) {
	s := newDefaultStack(t)
	ctx := context.Background()

	_, err := s.catalog.Update(ctx, s.user(t, "u-bob"), "gbc-001", services.ProductInput{StockQuantity: ptr(1)})
	var fe *domain.ForbiddenError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 8, s.stock(t, "gbc-001"))

	p, err := s.catalog.Update(ctx, s.user(t, "u-sam"), "gbc-001", services.ProductInput{
		StockQuantity: ptr(12),
		Price:         ptr(decimal.RequireFromString("119.99")),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, p.StockQuantity)
	assert.Equal(t, "119.99", p.Price.StringFixed(2))
	assert.Equal(t, "Game Boy Color", p.Name)

	assert.Equal(t, 1, s.cache.invalidationCount())
	a, err := s.inv.CheckAvailability(ctx, "gbc-001")
	require.NoError(t, err)
	assert.False(t, a.Cached)
	assert.Equal(t, 12, a.Qty)

	_, err = s.catalog.Update(ctx, s.user(t, "u-admin"), "gbc-001", services.ProductInput{Name: ptr("GBC")})
	require.NoError(t, err)

	_, err = s.catalog.Update(ctx, s.user(t, "u-admin"), "ghost", services.ProductInput{Name: ptr("x")})
	assert.True(t, domain.IsNotFound(err))
}

func TestCatalog_DeleteKeepsOrderSnapshots(t *testing.T) {
	s := newDefaultStack(t)
	ctx := context.Background()
	alice := s.user(t, "u-alice")

	v, err := s.orders.Checkout(ctx, alice, services.CheckoutRequest{Items: []services.LineRequest{line("nes-001", 1)}})
	require.NoError(t, err)
	wish := services.NewWishlistService(repos.NewWishlistRepo(s.db), s.prods)
	_, err = wish.Toggle(ctx, alice, "nes-001")
	require.NoError(t, err)
	_, err = s.inv.CheckAvailability(ctx, "nes-001")
	require.NoError(t, err)

	require.ErrorAs(t, s.catalog.Delete(ctx, alice, "nes-001"), new(*domain.ForbiddenError))
	require.NoError(t, s.catalog.Delete(ctx, s.user(t, "u-admin"), "nes-001"))

	_, err = s.catalog.GetProduct(ctx, "nes-001")
	assert.True(t, domain.IsNotFound(err))
	_, ok, _ := s.cache.Stock(ctx, "nes-001")
	assert.False(t, ok)

	items, err := wish.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, items)

	got, err := s.orders.Render(ctx, v.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Items[0].Product)
	assert.Equal(t, "199.00", got.Items[0].PriceAtPurchase)
}

func TestCatalog_UpdateAfterConcurrentCheckoutKeepsDecrement(t *testing.T) {
	s := newDefaultStack(t)
	ctx := context.Background()
	alice := s.user(t, "u-alice")

	services.SetAfterAuthorize(s.catalog, func() {
		_, err := s.orders.Checkout(ctx, alice, services.CheckoutRequest{
			Items: []services.LineRequest{line("gbc-001", 3)},
		})
		require.NoError(t, err)
	})

	p, err := s.catalog.Update(ctx, s.user(t, "u-sam"), "gbc-001", services.ProductInput{Name: ptr("Game Boy Color (Teal)")})
	require.NoError(t, err)
	assert.Equal(t, "Game Boy Color (Teal)", p.Name)
	assert.Equal(t, 5, p.StockQuantity, "a rename must not restore stock sold in between")
	assert.Equal(t, 5, s.stock(t, "gbc-001"))
	assert.Equal(t, "129.99", p.Price.StringFixed(2))
}

func TestCatalog_StockUpdateAfterConcurrentCheckoutWins(t *testing.T) {
	s := newDefaultStack(t)
	ctx := context.Background()
	alice := s.user(t, "u-alice")

	services.SetAfterAuthorize(s.catalog, func() {
		_, err := s.orders.Checkout(ctx, alice, services.CheckoutRequest{
			Items: []services.LineRequest{line("gbc-001", 3)},
		})
		require.NoError(t, err)
	})

	p, err := s.catalog.Update(ctx, s.user(t, "u-sam"), "gbc-001", services.ProductInput{StockQuantity: ptr(20)})
	require.NoError(t, err)
	assert.Equal(t, 20, p.StockQuantity)
	assert.Equal(t, 1, s.count(t, "orders"))
	_, ok := s.cache.cached("gbc-001")
	assert.False(t, ok)
}
