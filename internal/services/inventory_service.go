package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/repos"
)

// StockCache is the read-through mirror of committed stock levels (redis in production).
// Only the read path fills it, and only if no invalidation happened since Version was read.
type StockCache interface {
	Stock(ctx context.Context, productID string) (int, bool, error)
	Version(ctx context.Context, productID string) (int64, error)
	Fill(ctx context.Context, productID string, qty int, ver int64) (bool, error)
	Invalidate(ctx context.Context, productID string) error
}

// Outcome of a single reservation.
type Outcome int

const (
	Reserved Outcome = iota
	InsufficientStock
	ProductMissing
)

func (o Outcome) String() string {
	switch o {
	case Reserved:
		return "committed"
	case InsufficientStock:
		return "insufficient_stock"
	case ProductMissing:
		return "not_found"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type Reservation struct {
	Outcome   Outcome
	ProductID string
	Name      string
	Requested int
	Available int // stock seen under the lock, before this reservation
	Remaining int // stock after this reservation; equals Available unless Reserved
}

// InventoryService is the stock ledger: per-product reservations inside a caller's
// transaction, and availability reads.
type InventoryService struct {
	Inv     *repos.InventoryRepo
	Cache   StockCache // nil disables caching
	LowMark int
}

func NewInventoryService(inv *repos.InventoryRepo, cache StockCache, lowMark int) *InventoryService {
	if lowMark <= 0 {
		lowMark = 5
	}
	return &InventoryService{Inv: inv, Cache: cache, LowMark: lowMark}
}

// Reserve checks and decrements one product's stock inside tx. The product row stays
// locked until tx ends; no other product is touched. On InsufficientStock or
// ProductMissing nothing is written.
func (s *InventoryService) Reserve(ctx context.Context, tx *sqlx.Tx, productID string, qty int) (Reservation, error) {
	res := Reservation{ProductID: productID, Requested: qty}
	if qty <= 0 {
		return res, domain.Invalid("quantity", "quantity must be a positive integer")
	}

	row, err := s.Inv.LockStock(ctx, tx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		res.Outcome = ProductMissing
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("lock stock %s: %w", productID, err)
	}
	res.Name = row.Name
	res.Available = row.Qty
	res.Remaining = row.Qty

	if row.Qty < qty {
		res.Outcome = InsufficientStock
		return res, nil
	}
	if err := s.Inv.Decrement(ctx, tx, productID, qty); err != nil {
		if errors.Is(err, repos.ErrInsufficientStock) {
			res.Outcome = InsufficientStock
			return res, nil
		}
		return res, fmt.Errorf("decrement stock %s: %w", productID, err)
	}
	res.Outcome = Reserved
	res.Remaining = row.Qty - qty
	return res, nil
}

// Invalidate drops cached levels of products whose stock changed. Call after commit.
func (s *InventoryService) Invalidate(ctx context.Context, productIDs ...string) {
	if s.Cache == nil {
		return
	}
	for _, id := range productIDs {
		if err := s.Cache.Invalidate(ctx, id); err != nil {
			applog.Warn(nil, "stock.cache.invalidate.fail", err, map[string]any{"product": id})
		}
	}
}

// CheckAvailability converts qty into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	fill := false
	var ver int64
	if s.Cache != nil {
		qty, ok, err := s.Cache.Stock(ctx, productID)
		if err != nil {
			applog.Warn(nil, "stock.cache.get.fail", err, map[string]any{"product": productID})
		} else if ok {
			a := s.bucket(productID, qty)
			a.Cached = true
			return a, nil
		}
		// The version must be read before the database so a commit in between is detected.
		if ver, err = s.Cache.Version(ctx, productID); err != nil {
			applog.Warn(nil, "stock.cache.version.fail", err, map[string]any{"product": productID})
		} else {
			fill = true
		}
	}

	qty, err := s.Inv.Qty(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Availability{}, domain.NotFound("product", productID)
	}
	if err != nil {
		return domain.Availability{}, err
	}
	if fill {
		if _, err := s.Cache.Fill(ctx, productID, qty, ver); err != nil {
			applog.Warn(nil, "stock.cache.fill.fail", err, map[string]any{"product": productID})
		}
	}
	return s.bucket(productID, qty), nil
}

func (s *InventoryService) bucket(productID string, qty int) domain.Availability {
	status := domain.OutOfStock
	switch {
	case qty >= s.LowMark:
		status = domain.InStock
	case qty > 0:
		status = domain.LowStock
	}
	return domain.Availability{ProductID: productID, Status: status, Qty: qty}
}
