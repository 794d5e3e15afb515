package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Price sources for order lines.
const (
	PriceFromClient  = "client"
	PriceFromCatalog = "catalog"
)

type Config struct {
	Port         string
	DBDriver     string
	DBDSN        string
	RedisAddr    string
	LogFile      string
	PriceSource  string
	LowStockMark int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "storefront.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./storefront.log"
	}
	// Legacy checkout trusted the cart price; "catalog" re-derives it from the product row.
	price := strings.ToLower(os.Getenv("PRICE_SOURCE"))
	if price != PriceFromCatalog {
		price = PriceFromClient
	}
	low := 5
	if v := os.Getenv("LOW_STOCK_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			low = n
		}
	}

	cfg := Config{
		Port:         port,
		DBDriver:     driver,
		DBDSN:        dsn,
		RedisAddr:    os.Getenv("REDIS_ADDR"), // empty disables the stock cache
		LogFile:      logFile,
		PriceSource:  price,
		LowStockMark: low,
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s DB_DSN=%s REDIS_ADDR=%s LOG_FILE=%s PRICE_SOURCE=%s LOW_STOCK_THRESHOLD=%d",
		cfg.Port, cfg.DBDriver, cfg.DBDSN, cfg.RedisAddr, cfg.LogFile, cfg.PriceSource, cfg.LowStockMark)
	return cfg
}
