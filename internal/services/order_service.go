package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/repos"
)

// LineRequest is one cart line as submitted by the client.
type LineRequest struct {
	ProductID string           `json:"id"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
}

type CheckoutRequest struct {
	Items        []LineRequest    `json:"items"`
	TotalPrice   *decimal.Decimal `json:"totalPrice"`
	CustomerName string           `json:"customerName"`
}

// NormalizedLine is a validated line with its resolved product and snapshot price.
type NormalizedLine struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

type NormalizedOrder struct {
	UserID       string
	CustomerName string
	Total        decimal.Decimal
	Lines        []NormalizedLine
}

type OrderService struct {
	Products    *repos.ProductRepo
	Orders      *repos.OrderRepo
	Inv         *InventoryService
	PriceSource string

	now func() time.Time
}

func NewOrderService(products *repos.ProductRepo, orders *repos.OrderRepo, inv *InventoryService, priceSource string) *OrderService {
	if priceSource != config.PriceFromCatalog {
		priceSource = config.PriceFromClient
	}
	return &OrderService{Products: products, Orders: orders, Inv: inv, PriceSource: priceSource, now: time.Now}
}

// Checkout validates req for user, places the order and renders the committed result.
func (s *OrderService) Checkout(ctx context.Context, user *domain.User, req CheckoutRequest) (OrderView, error) {
	n, err := s.Assemble(ctx, user, req)
	if err != nil {
		return OrderView{}, err
	}
	o, err := s.PlaceOrder(ctx, n)
	if err != nil {
		return OrderView{}, err
	}
	return s.Render(ctx, o.ID)
}

// Assemble validates a cart submission and resolves its products. It never touches stock.
func (s *OrderService) Assemble(ctx context.Context, user *domain.User, req CheckoutRequest) (NormalizedOrder, error) {
	if user == nil {
		return NormalizedOrder{}, domain.ErrUnauthenticated
	}
	if len(req.Items) == 0 {
		return NormalizedOrder{}, domain.Invalid("items", "No items provided")
	}

	ids := make([]string, 0, len(req.Items))
	for i, it := range req.Items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		req.Items[i].ProductID = it.ProductID
		if it.ProductID == "" {
			return NormalizedOrder{}, domain.Invalid("items", fmt.Sprintf("Item %d: product id is required", i+1))
		}
		if it.Quantity <= 0 {
			return NormalizedOrder{}, domain.Invalid("items", fmt.Sprintf("Item %d: quantity must be a positive integer", i+1))
		}
		if it.Price != nil && it.Price.IsNegative() {
			return NormalizedOrder{}, domain.Invalid("items", fmt.Sprintf("Item %d: price must not be negative", i+1))
		}
		ids = append(ids, it.ProductID)
	}

	products, err := s.Products.ByIDs(ctx, ids)
	if err != nil {
		return NormalizedOrder{}, fmt.Errorf("resolve products: %w", err)
	}

	out := NormalizedOrder{UserID: user.ID, Lines: make([]NormalizedLine, 0, len(req.Items))}
	sum := decimal.Zero
	for _, it := range req.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return NormalizedOrder{}, domain.NotFound("product", it.ProductID)
		}
		price := p.Price
		if s.PriceSource == config.PriceFromClient && it.Price != nil {
			price = *it.Price
		}
		out.Lines = append(out.Lines, NormalizedLine{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: price,
		})
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	out.Total = sum
	if req.TotalPrice != nil {
		if req.TotalPrice.IsNegative() {
			return NormalizedOrder{}, domain.Invalid("totalPrice", "totalPrice must not be negative")
		}
		out.Total = *req.TotalPrice
	}

	out.CustomerName = strings.TrimSpace(req.CustomerName)
	if out.CustomerName == "" {
		out.CustomerName = user.Name
	}
	if out.CustomerName == "" {
		out.CustomerName = user.Email
	}
	return out, nil
}

// PlaceOrder persists n as one atomic unit: header, then per line in submission order a
// reservation and the line insert. Any failure rolls back every write of the unit,
// including decrements made for earlier lines.
func (s *OrderService) PlaceOrder(ctx context.Context, n NormalizedOrder) (domain.Order, error) {
	if len(n.Lines) == 0 {
		return domain.Order{}, domain.Invalid("items", "No items provided")
	}
	// A checkout either completes or rolls back; a client hanging up does not abort it.
	ctx = context.WithoutCancel(ctx)

	tx, err := s.Orders.Begin(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin checkout: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	o := domain.Order{
		ID:           uuid.NewString(),
		UserID:       n.UserID,
		CustomerName: n.CustomerName,
		TotalAmount:  n.Total,
		Status:       domain.StatusPending,
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	}
	if err := s.Orders.CreateHeader(ctx, tx, o); err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	touched := make([]string, 0, len(n.Lines))
	for i, ln := range n.Lines {
		res, err := s.Inv.Reserve(ctx, tx, ln.ProductID, ln.Quantity)
		if err != nil {
			return domain.Order{}, err
		}
		switch res.Outcome {
		case ProductMissing:
			return domain.Order{}, domain.NotFound("product", ln.ProductID)
		case InsufficientStock:
			return domain.Order{}, &domain.StockError{
				ProductID:   res.ProductID,
				ProductName: res.Name,
				Requested:   res.Requested,
				Available:   res.Available,
			}
		}
		touched = append(touched, ln.ProductID)

		pid := ln.ProductID
		it := domain.OrderItem{
			ID:              uuid.NewString(),
			OrderID:         o.ID,
			ProductID:       &pid,
			Quantity:        ln.Quantity,
			PriceAtPurchase: ln.UnitPrice,
		}
		if err := s.Orders.InsertItem(ctx, tx, it, i); err != nil {
			return domain.Order{}, fmt.Errorf("insert order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit checkout: %w", err)
	}
	s.Inv.Invalidate(ctx, touched...)
	return o, nil
}
