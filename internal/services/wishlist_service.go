package services

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

type WishlistService struct {
	Repo  *repos.WishlistRepo
	Prods *repos.ProductRepo
}

func NewWishlistService(r *repos.WishlistRepo, prods *repos.ProductRepo) *WishlistService {
	return &WishlistService{Repo: r, Prods: prods}
}

// Toggle saves the product for user, or removes it if already saved. It reports
// whether the product is saved afterwards.
func (s *WishlistService) Toggle(ctx context.Context, user *domain.User, productID string) (bool, error) {
	if user == nil {
		return false, domain.ErrUnauthenticated
	}
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.NotFound("product", productID)
		}
		return false, err
	}
	removed, err := s.Repo.Remove(ctx, user.ID, productID)
	if err != nil || removed {
		return false, err
	}
	return true, s.Repo.Add(ctx, user.ID, productID)
}

func (s *WishlistService) List(ctx context.Context, user *domain.User) ([]repos.WishlistRow, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.Repo.List(ctx, user.ID)
}
