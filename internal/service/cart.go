package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Topic  string
}

// CartLine is a cart item priced at read time; nothing here is stored.
type CartLine struct {
	models.CartItem
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	InStock     bool            `json:"in_stock"`
}

type CartView struct {
	ID     uuid.UUID       `json:"id"`
	UserID uuid.UUID       `json:"user_id"`
	Items  []CartLine      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.Repo.FindCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &CartView{ID: cart.ID, UserID: userID}
	lines := make([]CartLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		p, ok := products[it.ProductID]
		if !ok {
			logging.FromContext(ctx).Warn("cart_product_missing", "svc", "cart.get", "product_id", it.ProductID)
			continue
		}
		lines = append(lines, CartLine{
			CartItem:    it,
			ProductName: p.Name,
			InStock:     domain.Resolve(p, p.Variants).InStock,
		})
	}

	view.Items = lines
	view.Total = ComputeTotal(lines, products)
	return view, nil
}

// ComputeTotal prices every line with the product's derived price and fills
// UnitPrice and LineTotal in place.
func ComputeTotal(lines []CartLine, products map[uuid.UUID]models.Product) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		p := products[lines[i].ProductID]
		price := domain.Resolve(p, p.Variants).Price
		lines[i].UnitPrice = price
		lines[i].LineTotal = price.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
		total = total.Add(lines[i].LineTotal)
	}
	return total
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int, snapshot *models.VariantSnapshot) (*models.CartItem, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product_id required: %w", domain.ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be >= 1: %w", domain.ErrValidation)
	}

	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		return nil, err
	}

	if err := checkAvailable(*product, quantity); err != nil {
		return nil, err
	}

	if snapshot == nil {
		if v, ok := domain.SelectVariant(product.Variants, quantity); ok {
			snap := v.Snapshot()
			snapshot = &snap
		}
	}

	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.Repo.AddCartItem(ctx, cart.ID, productID, quantity, snapshot)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, s.Topic, userID.String(), CartEvent{
		Type: EventCartItemAdded, UserID: userID, ProductID: productID, Quantity: item.Quantity, At: time.Now().UTC(),
	})
	return item, nil
}

// UpdateQuantity sets a line's quantity. Anything outside 1..available is
// refused as insufficient stock.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	item, err := s.Repo.FindCartItem(ctx, userID, itemID)
	if err != nil {
		return nil, cartItemErr(itemID, err)
	}

	product, err := s.Repo.GetProduct(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, domain.ErrNotFound)
		}
		return nil, err
	}
	if err := checkAvailable(*product, quantity); err != nil {
		return nil, err
	}

	updated, err := s.Repo.SetCartItemQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, cartItemErr(itemID, err)
	}

	publish(ctx, s.Events, s.Topic, userID.String(), CartEvent{
		Type: EventCartItemUpdated, UserID: userID, ProductID: updated.ProductID, Quantity: updated.Quantity, At: time.Now().UTC(),
	})
	return updated, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.Repo.DeleteCartItem(ctx, userID, itemID); err != nil {
		return cartItemErr(itemID, err)
	}

	publish(ctx, s.Events, s.Topic, userID.String(), CartEvent{
		Type: EventCartItemRemoved, UserID: userID, At: time.Now().UTC(),
	})
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.Repo.ClearCart(ctx, userID); err != nil {
		return err
	}

	publish(ctx, s.Events, s.Topic, userID.String(), CartEvent{
		Type: EventCartCleared, UserID: userID, At: time.Now().UTC(),
	})
	return nil
}

// checkAvailable is advisory; the authoritative check is the reservation at
// order time.
func checkAvailable(p models.Product, quantity int) error {
	view := domain.Resolve(p, p.Variants)
	if quantity < 1 || !view.InStock || view.StockCount < quantity {
		return &domain.InsufficientStockError{
			ProductID: p.ID,
			Requested: quantity,
			Available: view.StockCount,
		}
	}
	return nil
}

// Items outside the caller's cart are reported the same way whether they
// exist or not.
func cartItemErr(itemID uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("cart item %s: %w", itemID, domain.ErrForbidden)
	}
	return err
}
