package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Orders  *repos.OrderRepo
	Prods   *repos.ProductRepo
}

func NewReviewService(reviews *repos.ReviewRepo, orders *repos.OrderRepo, prods *repos.ProductRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Orders: orders, Prods: prods}
}

// Create records a review. Only buyers of the product may review it, once.
func (s *ReviewService) Create(ctx context.Context, user *domain.User, productID string, rating int, comment string) (domain.Review, error) {
	if user == nil {
		return domain.Review{}, domain.ErrUnauthenticated
	}
	if !validate.Rating(rating) {
		return domain.Review{}, domain.Invalid("rating", "Rating must be between 1 and 5")
	}
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, domain.NotFound("product", productID)
		}
		return domain.Review{}, err
	}
	bought, err := s.Orders.HasPurchased(ctx, user.ID, productID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("check purchase: %w", err)
	}
	if !bought {
		return domain.Review{}, domain.Forbidden("You can only review products you have purchased.")
	}
	dup, err := s.Reviews.Exists(ctx, productID, user.ID)
	if err != nil {
		return domain.Review{}, err
	}
	if dup {
		return domain.Review{}, domain.Invalid("product", "You have already reviewed this product.")
	}

	rv := domain.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    user.ID,
		UserName:  user.Name,
		Rating:    rating,
		Comment:   validate.Text(comment, 2000),
	}
	if err := s.Reviews.Create(ctx, &rv); err != nil {
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}
	return rv, nil
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("product", productID)
		}
		return nil, err
	}
	return s.Reviews.ListByProduct(ctx, productID)
}
