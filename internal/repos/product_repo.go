package repos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, seller_id, name, description, category, price, stock_quantity,
    created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT`+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// ByIDs loads the given products keyed by id. Unknown ids are simply absent from the map.
func (r *ProductRepo) ByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT`+productCols+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// Create inserts p, stamping CreatedAt.
func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	p.CreatedAt = stamp(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products(id, seller_id, name, description, category, price, stock_quantity, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.SellerID, p.Name, p.Description, p.Category, p.Price, p.StockQuantity, p.CreatedAt)
	return err
}

// ProductPatch holds the columns an edit supplies; nil fields are left as stored.
type ProductPatch struct {
	Name          *string
	Description   *string
	Category      *string
	Price         *decimal.Decimal
	StockQuantity *int
}

// Update writes only the supplied columns of product id. A stock change takes the
// same row lock as a checkout reservation, so it serializes with in-flight checkouts.
// A stock change on a missing product returns sql.ErrNoRows.
func (r *ProductRepo) Update(ctx context.Context, id string, patch ProductPatch) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if patch.StockQuantity != nil {
		if _, err := lockStock(ctx, tx, id); err != nil {
			return err
		}
	}

	sets := []string{"updated_at = ?"}
	args := []any{stamp(time.Now())}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.StockQuantity != nil {
		add("stock_quantity", *patch.StockQuantity)
	}
	args = append(args, id)

	if _, err := tx.ExecContext(ctx, `UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a product. Order lines keep their snapshot and lose the reference;
// wishlist entries and reviews go with the product.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`UPDATE order_items SET product_id = NULL WHERE product_id = ?`,
		`DELETE FROM wishlist_items WHERE product_id = ?`,
		`DELETE FROM reviews WHERE product_id = ?`,
		`DELETE FROM products WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
