package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

type ProductView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Price         string `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
	Seller        string `json:"seller"`
}

type OrderItemView struct {
	ID              string       `json:"id"`
	Product         *ProductView `json:"product"`
	ProductID       *string      `json:"product_id"`
	Quantity        int          `json:"quantity"`
	PriceAtPurchase string       `json:"price_at_purchase"`
	Subtotal        string       `json:"subtotal"`
}

type OrderView struct {
	ID           string          `json:"id"`
	User         string          `json:"user"`
	CustomerName string          `json:"customer_name"`
	TotalAmount  string          `json:"total_amount"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"created_at"`
	Items        []OrderItemView `json:"items"`
}

func NewProductView(p domain.Product) ProductView {
	return ProductView{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
		Seller:        p.SellerID,
	}
}

// RenderOrder builds the response shape of o. Lines whose product is gone, or missing
// from products, render with a null product; purchase-time price and quantity always render.
func RenderOrder(o domain.Order, products map[string]domain.Product) OrderView {
	v := OrderView{
		ID:           o.ID,
		User:         o.UserID,
		CustomerName: o.CustomerName,
		TotalAmount:  o.TotalAmount.StringFixed(2),
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt.UTC().Format(time.RFC3339),
		Items:        make([]OrderItemView, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		iv := OrderItemView{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase.StringFixed(2),
			Subtotal:        it.Subtotal().StringFixed(2),
		}
		if it.ProductID != nil {
			if p, ok := products[*it.ProductID]; ok {
				pv := NewProductView(p)
				iv.Product = &pv
			}
		}
		v.Items = append(v.Items, iv)
	}
	return v
}

// Render loads a committed order and renders it with current product details.
func (s *OrderService) Render(ctx context.Context, orderID string) (OrderView, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return OrderView{}, domain.NotFound("order", orderID)
	}
	if err != nil {
		return OrderView{}, fmt.Errorf("load order: %w", err)
	}
	views, err := s.renderAll(ctx, []domain.Order{o})
	if err != nil {
		return OrderView{}, err
	}
	return views[0], nil
}

// Get renders an order visible to user. Other users' orders look absent.
func (s *OrderService) Get(ctx context.Context, user *domain.User, orderID string) (OrderView, error) {
	if user == nil {
		return OrderView{}, domain.ErrUnauthenticated
	}
	v, err := s.Render(ctx, orderID)
	if err != nil {
		return OrderView{}, err
	}
	if v.User != user.ID && !user.IsAdmin() {
		return OrderView{}, domain.NotFound("order", orderID)
	}
	return v, nil
}

// List returns every order for admins and the caller's own orders otherwise, newest first.
func (s *OrderService) List(ctx context.Context, user *domain.User) ([]OrderView, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	var (
		orders []domain.Order
		err    error
	)
	if user.IsAdmin() {
		orders, err = s.Orders.ListLatest(ctx, 100)
	} else {
		orders, err = s.Orders.ListByUser(ctx, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return s.renderAll(ctx, orders)
}

func (s *OrderService) renderAll(ctx context.Context, orders []domain.Order) ([]OrderView, error) {
	seen := map[string]bool{}
	var ids []string
	for _, o := range orders {
		for _, it := range o.Items {
			if it.ProductID != nil && !seen[*it.ProductID] {
				seen[*it.ProductID] = true
				ids = append(ids, *it.ProductID)
			}
		}
	}
	products, err := s.Products.ByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, RenderOrder(o, products))
	}
	return out, nil
}

// UpdateStatus applies a fulfillment transition. Only admins may move orders.
func (s *OrderService) UpdateStatus(ctx context.Context, user *domain.User, orderID, status string) (OrderView, error) {
	if user == nil {
		return OrderView{}, domain.ErrUnauthenticated
	}
	if !user.IsAdmin() {
		return OrderView{}, domain.Forbidden("Only admins can change order status")
	}
	to, ok := domain.ParseStatus(status)
	if !ok {
		return OrderView{}, domain.Invalid("status", fmt.Sprintf("Unknown status %q", status))
	}
	o, err := s.Orders.Get(ctx, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return OrderView{}, domain.NotFound("order", orderID)
	}
	if err != nil {
		return OrderView{}, fmt.Errorf("load order: %w", err)
	}
	if !o.Status.CanTransition(to) {
		return OrderView{}, domain.Invalid("status", fmt.Sprintf("Cannot change status from %s to %s", o.Status, to))
	}
	if err := s.Orders.UpdateStatus(ctx, orderID, o.Status, to); err != nil {
		if errors.Is(err, repos.ErrStatusChanged) {
			return OrderView{}, domain.Invalid("status", "Order status changed, reload and retry")
		}
		return OrderView{}, fmt.Errorf("update status: %w", err)
	}
	return s.Render(ctx, orderID)
}
