package handlers

import (
	"storefront/internal/config"
	"storefront/internal/repos"
	"storefront/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth             *services.AuthService
	AuthHandler      *AuthHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
	WishlistHandler  *WishlistHandler
	ReviewHandler    *ReviewHandler
}

// NewDeps wires repositories, services and handlers. cache may be nil.
func NewDeps(db *sqlx.DB, cfg config.Config, cache services.StockCache) *Deps {
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	wishRepo := repos.NewWishlistRepo(db)
	reviewRepo := repos.NewReviewRepo(db)

	authSvc := &services.AuthService{Users: userRepo}
	invSvc := services.NewInventoryService(invRepo, cache, cfg.LowStockMark)
	catalogSvc := services.NewCatalogService(prodRepo, invSvc)
	orderSvc := services.NewOrderService(prodRepo, orderRepo, invSvc, cfg.PriceSource)
	wishSvc := services.NewWishlistService(wishRepo, prodRepo)
	reviewSvc := services.NewReviewService(reviewRepo, orderRepo, prodRepo)

	return &Deps{
		Auth:             authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		OrderHandler:     &OrderHandler{Order: orderSvc},
		AdminHandler:     &AdminHandler{Order: orderSvc},
		WishlistHandler:  &WishlistHandler{Wish: wishSvc},
		ReviewHandler:    &ReviewHandler{Reviews: reviewSvc},
	}
}
