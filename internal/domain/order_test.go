package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{StatusPending, StatusShipped}:   true,
		{StatusPending, StatusCancelled}: true,
		{StatusShipped, StatusDelivered}: true,
	}
	all := []OrderStatus{StatusPending, StatusShipped, StatusDelivered, StatusCancelled}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]OrderStatus{from, to}], from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus("shipped")
	assert.True(t, ok)
	assert.Equal(t, StatusShipped, st)

	_, ok = ParseStatus("SHIPPED")
	assert.False(t, ok)
}

func TestSubtotalAndErrors(t *testing.T) {
	it := OrderItem{Quantity: 3, PriceAtPurchase: decimal.RequireFromString("19.99")}
	assert.Equal(t, "59.97", it.Subtotal().StringFixed(2))

	err := &StockError{ProductName: "NES Console", Requested: 3, Available: 2}
	assert.Equal(t, "Insufficient stock for NES Console. Available: 2", err.Error())
	assert.True(t, IsNotFound(NotFound("product", "x")))
	assert.False(t, IsNotFound(Invalid("items", "No items provided")))
}
