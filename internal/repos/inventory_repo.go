package repos

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrInsufficientStock is returned by Decrement when the guarded update matched no row.
var ErrInsufficientStock = errors.New("insufficient stock")

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// StockRow is the slice of a product row the ledger works on.
type StockRow struct {
	ProductID string `db:"id"`
	Name      string `db:"name"`
	Qty       int    `db:"stock_quantity"`
}

// LockStock reads a product's stock inside tx, taking an exclusive row lock where
// the dialect has one. The lock is held until tx ends.
// Returns sql.ErrNoRows if the product does not exist.
func (r *InventoryRepo) LockStock(ctx context.Context, tx *sqlx.Tx, productID string) (StockRow, error) {
	return lockStock(ctx, tx, productID)
}

func lockStock(ctx context.Context, tx *sqlx.Tx, productID string) (StockRow, error) {
	var row StockRow
	err := tx.GetContext(ctx, &row, `
		SELECT id, name, stock_quantity FROM products
		WHERE id = ?`+forUpdate(tx.DriverName()), productID)
	return row, err
}

// Decrement subtracts "by" units inside tx if enough stock exists.
func (r *InventoryRepo) Decrement(ctx context.Context, tx *sqlx.Tx, productID string, by int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - ?, updated_at = ?
		WHERE id = ? AND stock_quantity >= ?
	`, by, stamp(time.Now()), productID, by)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Qty returns committed stock for a product.
// If no row exists, it returns sql.ErrNoRows from sqlx.Get.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	err := r.db.GetContext(ctx, &qty, `SELECT stock_quantity FROM products WHERE id = ?`, productID)
	if err != nil {
		return 0, err
	}
	return qty, nil
}
