package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

// Add is a no-op when the product is already saved.
func (r *WishlistRepo) Add(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, insertIgnore(r.db.DriverName())+`
	  INTO wishlist_items(user_id, product_id, created_at) VALUES(?, ?, ?)
	`, userID, productID, stamp(time.Now()))
	return err
}

// Remove reports whether a row was deleted.
func (r *WishlistRepo) Remove(ctx context.Context, userID, productID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id=? AND product_id=?`, userID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type WishlistRow struct {
	ProductID string          `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt string          `db:"created_at" json:"created_at"`
}

func (r *WishlistRepo) List(ctx context.Context, userID string) ([]WishlistRow, error) {
	out := []WishlistRow{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT p.id AS product_id, p.name, p.price, p.stock_quantity, wi.created_at
	  FROM wishlist_items wi
	  JOIN products p ON p.id = wi.product_id
	  WHERE wi.user_id = ?
	  ORDER BY wi.created_at DESC, p.name
	`, userID)
	return out, err
}
