package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

// ProductInput carries create/update fields; nil pointers leave a field unchanged on update.
type ProductInput struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stock_quantity"`
}

type CatalogService struct {
	Prods *repos.ProductRepo
	Inv   *InventoryService

	afterAuthorize func() // test hook between the ownership read and the write
}

func NewCatalogService(prods *repos.ProductRepo, inv *InventoryService) *CatalogService {
	return &CatalogService{Prods: prods, Inv: inv}
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.NotFound("product", id)
	}
	return p, err
}

func (s *CatalogService) Create(ctx context.Context, user *domain.User, in ProductInput) (domain.Product, error) {
	if user == nil {
		return domain.Product{}, domain.ErrUnauthenticated
	}
	if !user.CanSell() {
		return domain.Product{}, domain.Forbidden("Only sellers and admins can create products.")
	}
	if in.Name == nil || in.Price == nil {
		return domain.Product{}, domain.Invalid("product", "name and price are required")
	}
	patch, err := normalize(in)
	if err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		ID:          uuid.NewString(),
		SellerID:    user.ID,
		Name:        *patch.Name,
		Description: deref(patch.Description),
		Category:    deref(patch.Category),
		Price:       *patch.Price,
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	if err := s.Prods.Create(ctx, &p); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update edits a product owned by user (or any product, for admins). Only the
// supplied fields are written, so concurrent checkout decrements are preserved.
func (s *CatalogService) Update(ctx context.Context, user *domain.User, id string, in ProductInput) (domain.Product, error) {
	patch, err := normalize(in)
	if err != nil {
		return domain.Product{}, err
	}
	if _, err := s.owned(ctx, user, id); err != nil {
		return domain.Product{}, err
	}
	if s.afterAuthorize != nil {
		s.afterAuthorize()
	}
	if err := s.Prods.Update(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.NotFound("product", id)
		}
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	if patch.StockQuantity != nil {
		s.Inv.Invalidate(ctx, id)
	}
	return s.GetProduct(ctx, id)
}

func (s *CatalogService) Delete(ctx context.Context, user *domain.User, id string) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}
	if err := s.Prods.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.Inv.Invalidate(ctx, id)
	return nil
}

func (s *CatalogService) owned(ctx context.Context, user *domain.User, id string) (domain.Product, error) {
	if user == nil {
		return domain.Product{}, domain.ErrUnauthenticated
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if p.SellerID != user.ID && !user.IsAdmin() {
		return domain.Product{}, domain.Forbidden("You can only modify your own products.")
	}
	return p, nil
}

// normalize validates in and returns the columns to write.
func normalize(in ProductInput) (repos.ProductPatch, error) {
	var patch repos.ProductPatch
	if in.Name != nil {
		name, ok := validate.Name(*in.Name)
		if !ok {
			return patch, domain.Invalid("name", "name must be 1-255 characters")
		}
		patch.Name = &name
	}
	if in.Description != nil {
		d := validate.Text(*in.Description, 5000)
		patch.Description = &d
	}
	if in.Category != nil {
		c := validate.Text(*in.Category, 100)
		patch.Category = &c
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return patch, domain.Invalid("price", "price must not be negative")
		}
		price := in.Price.Round(2)
		patch.Price = &price
	}
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return patch, domain.Invalid("stock_quantity", "stock_quantity must not be negative")
		}
		patch.StockQuantity = in.StockQuantity
	}
	return patch, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
