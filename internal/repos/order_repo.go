package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// ErrStatusChanged means a conditional status update lost a race.
var ErrStatusChanged = errors.New("order status changed concurrently")

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID           string          `db:"id"`
	UserID       string          `db:"user_id"`
	CustomerName string          `db:"customer_name"`
	TotalAmount  decimal.Decimal `db:"total_amount"`
	Status       string          `db:"status"`
	CreatedAt    string          `db:"created_at"`
}

func (o orderRow) order() domain.Order {
	return domain.Order{
		ID:           o.ID,
		UserID:       o.UserID,
		CustomerName: o.CustomerName,
		TotalAmount:  o.TotalAmount,
		Status:       domain.OrderStatus(o.Status),
		CreatedAt:    parseStamp(o.CreatedAt),
	}
}

// Begin opens the unit of work a checkout runs in.
func (r *OrderRepo) Begin(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// CreateHeader inserts a new order header inside tx.
func (r *OrderRepo) CreateHeader(ctx context.Context, tx *sqlx.Tx, o domain.Order) error {
	_, err := tx.ExecContext(ctx, `
	  INSERT INTO orders(id, user_id, customer_name, total_amount, status, created_at)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, o.ID, o.UserID, o.CustomerName, o.TotalAmount, string(o.Status), stamp(o.CreatedAt))
	return err
}

// InsertItem inserts line number lineNo of an order inside tx.
func (r *OrderRepo) InsertItem(ctx context.Context, tx *sqlx.Tx, it domain.OrderItem, lineNo int) error {
	_, err := tx.ExecContext(ctx, `
	  INSERT INTO order_items(id, order_id, product_id, line_no, quantity, price_at_purchase)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, it.ID, it.OrderID, it.ProductID, lineNo, it.Quantity, it.PriceAtPurchase)
	return err
}

// Get loads an order with its items in submission order.
// Returns sql.ErrNoRows if the order does not exist.
func (r *OrderRepo) Get(ctx context.Context, orderID string) (domain.Order, error) {
	var row orderRow
	if err := r.db.GetContext(ctx, &row, `
		SELECT id, user_id, customer_name, total_amount, status, created_at
		FROM orders WHERE id = ?
	`, orderID); err != nil {
		return domain.Order{}, err
	}
	o := row.order()
	items, err := r.Items(ctx, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// Items returns the lines of the given orders grouped by order id.
func (r *OrderRepo) Items(ctx context.Context, orderIDs ...string) (map[string][]domain.OrderItem, error) {
	out := make(map[string][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`
		SELECT id, order_id, product_id, quantity, price_at_purchase
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, line_no
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	var rows []domain.OrderItem
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, it := range rows {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `
		SELECT id, user_id, customer_name, total_amount, status, created_at
		FROM orders
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, customer_name, total_amount, status, created_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id
	`, userID)
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.order())
		ids = append(ids, row.ID)
	}
	items, err := r.Items(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

// UpdateStatus moves an order from one status to another, failing if it is no longer in "from".
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStatusChanged
	}
	return nil
}

// HasPurchased reports whether userID has any order line for productID, whatever the order's status.
func (r *OrderRepo) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `
		SELECT 1 FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = ? AND oi.product_id = ?
		LIMIT 1
	`, userID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
