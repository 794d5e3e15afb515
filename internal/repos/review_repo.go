package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts rv, stamping CreatedAt.
func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	rv.CreatedAt = stamp(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews(id, product_id, user_id, rating, comment, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt)
	return err
}

func (r *ReviewRepo) Exists(ctx context.Context, productID, userID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reviews WHERE product_id=? AND user_id=?`, productID, userID)
	return n > 0, err
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	out := []domain.Review{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT rv.id, rv.product_id, rv.user_id, u.name AS user_name, rv.rating, rv.comment, rv.created_at
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.product_id = ?
		ORDER BY rv.created_at DESC, rv.id
	`, productID)
	return out, err
}
