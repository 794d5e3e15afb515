package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_DSN", "REDIS_ADDR", "LOG_FILE", "PRICE_SOURCE", "LOW_STOCK_THRESHOLD"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, PriceFromClient, cfg.PriceSource)
	assert.Equal(t, 5, cfg.LowStockMark)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("PRICE_SOURCE", "catalog")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg := Load()
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, PriceFromCatalog, cfg.PriceSource)
	assert.Equal(t, 3, cfg.LowStockMark)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)

	t.Setenv("LOW_STOCK_THRESHOLD", "zero")
	t.Setenv("PRICE_SOURCE", "whatever")
	cfg = Load()
	assert.Equal(t, 5, cfg.LowStockMark)
	assert.Equal(t, PriceFromClient, cfg.PriceSource)
}
