package repos

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stockKeyPrefix = "stock:"
	stockVerPrefix = "stockver:"
	stockKeyTTL    = 10 * time.Minute
	stockVerTTL    = 24 * time.Hour
)

// StockCache mirrors committed stock levels in redis for availability reads.
// The database stays the source of truth. Writers never set levels; they bump a
// per-product version and drop the entry. Readers fill an entry only if the version
// they saw before reading the database is still current, so a level read before a
// commit can never land after that commit's invalidation.
type StockCache struct {
	client *redis.Client
}

func NewStockCache(client *redis.Client) *StockCache {
	return &StockCache{client: client}
}

// Stock returns the cached level and whether an entry was present.
func (c *StockCache) Stock(ctx context.Context, productID string) (int, bool, error) {
	n, err := c.client.Get(ctx, stockKeyPrefix+productID).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// Version returns the product's invalidation counter; 0 if never invalidated.
func (c *StockCache) Version(ctx context.Context, productID string) (int64, error) {
	v, err := c.client.Get(ctx, stockVerPrefix+productID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Fill stores qty if the version is still ver. It reports whether the entry was written.
func (c *StockCache) Fill(ctx context.Context, productID string, qty int, ver int64) (bool, error) {
	verKey := stockVerPrefix + productID
	written := false
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != ver {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, stockKeyPrefix+productID, qty, stockKeyTTL)
			return nil
		})
		written = err == nil
		return err
	}, verKey)
	if errors.Is(err, redis.TxFailedErr) {
		// the version moved while we were watching
		return false, nil
	}
	return written, err
}

// Invalidate bumps the product's version and drops its cached level.
func (c *StockCache) Invalidate(ctx context.Context, productID string) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, stockVerPrefix+productID)
		p.Expire(ctx, stockVerPrefix+productID, stockVerTTL)
		p.Del(ctx, stockKeyPrefix+productID)
		return nil
	})
	return err
}
