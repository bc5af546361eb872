package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNumberAttempts = 5

type Stage string

const (
	StageValidating Stage = "validating"
	StagePricing    Stage = "pricing"
	StageReserving  Stage = "reserving"
	StagePersisting Stage = "persisting"
)

// OrderError reports which placement stage aborted and on which product.
// Nothing the aborted attempt did is visible afterwards.
type OrderError struct {
	Stage     Stage
	ProductID uuid.UUID
	VariantID uuid.UUID
	Err       error
}

func (e *OrderError) Error() string {
	if e.ProductID == uuid.Nil {
		return fmt.Sprintf("place order: %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("place order: %s: product %s: %v", e.Stage, e.ProductID, e.Err)
}

func (e *OrderError) Unwrap() error { return e.Err }

type PlaceOrderItem struct {
	ProductID uuid.UUID
	Quantity  int
	// UnitPrice is what the client believed the price was. It never reaches
	// the order.
	UnitPrice *decimal.Decimal
}

type PlaceOrderInput struct {
	UserID   uuid.UUID
	Items    []PlaceOrderItem
	Delivery models.Delivery
	Contact  models.Contact
}

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Topic  string
	// NewOrderNumber is replaced in tests to force collisions.
	NewOrderNumber func() string
}

func NewOrderNumber() string {
	return "ORD-" + ulid.Make().String()
}

func (s *OrderService) orderNumber() string {
	if s.NewOrderNumber != nil {
		return s.NewOrderNumber()
	}
	return NewOrderNumber()
}

func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.place", "user_id", in.UserID)

	lines, err := validatePlaceOrder(in)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		ids := make([]uuid.UUID, 0, len(lines))
		for _, ln := range lines {
			ids = append(ids, ln.ProductID)
		}
		products, err := tx.GetProducts(ctx, ids)
		if err != nil {
			return &OrderError{Stage: StageValidating, Err: err}
		}
		for _, ln := range lines {
			if _, ok := products[ln.ProductID]; !ok {
				return &OrderError{
					Stage:     StageValidating,
					ProductID: ln.ProductID,
					Err:       fmt.Errorf("product %s: %w", ln.ProductID, domain.ErrNotFound),
				}
			}
		}

		items := make([]models.OrderItem, 0, len(lines))
		total := decimal.Zero
		for _, ln := range lines {
			p := products[ln.ProductID]
			v, ok := domain.SelectVariant(p.Variants, ln.Quantity)
			if !ok {
				return &OrderError{
					Stage:     StagePricing,
					ProductID: p.ID,
					Err: &domain.InsufficientStockError{
						ProductID: p.ID,
						Requested: ln.Quantity,
						Available: domain.Resolve(p, p.Variants).StockCount,
					},
				}
			}
			if ln.UnitPrice != nil && !ln.UnitPrice.Equal(v.Price) {
				l.Warn("client_price_ignored", "product_id", p.ID, "variant_id", v.ID,
					"client_price", ln.UnitPrice.String(), "price", v.Price.String())
			}

			lineTotal := v.Price.Mul(decimal.NewFromInt(int64(ln.Quantity)))
			total = total.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID: p.ID,
				VariantID: v.ID,
				Quantity:  ln.Quantity,
				UnitPrice: v.Price,
				LineTotal: lineTotal,
				Variant:   v.Snapshot(),
			})
		}

		for _, it := range items {
			if err := tx.TryReserve(ctx, it.VariantID, it.Quantity); err != nil {
				return &OrderError{Stage: StageReserving, ProductID: it.ProductID, VariantID: it.VariantID, Err: err}
			}
		}

		order = &models.Order{
			UserID:   in.UserID,
			Delivery: in.Delivery,
			Contact:  in.Contact,
			Total:    total,
			Status:   models.OrderStatusPending,
			Items:    items,
		}
		if err := s.createWithUniqueNumber(ctx, tx, order); err != nil {
			return &OrderError{Stage: StagePersisting, Err: err}
		}

		if _, err := tx.ClearCart(ctx, in.UserID); err != nil {
			return &OrderError{Stage: StagePersisting, Err: err}
		}
		return nil
	})
	if err != nil {
		var oe *OrderError
		if !errors.As(err, &oe) {
			err = &OrderError{Stage: StagePersisting, Err: err}
		}
		l.Warn("place_order_aborted", "error", err)
		return nil, err
	}

	l.Info("order_placed", "order_id", order.ID, "order_number", order.OrderNumber, "total", order.Total.String())
	publish(ctx, s.Events, s.Topic, order.ID.String(), orderEvent(EventOrderPlaced, order))
	return order, nil
}

// createWithUniqueNumber retries with a fresh number on a unique violation.
// Each attempt runs in its own savepoint, so reservations made earlier in the
// transaction survive a failed attempt.
func (s *OrderService) createWithUniqueNumber(ctx context.Context, tx *repo.GormRepo, order *models.Order) error {
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order.OrderNumber = s.orderNumber()
		err := tx.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !repo.IsDuplicate(err) {
			return err
		}
		logging.FromContext(ctx).Warn("order_number_collision", "svc", "order.place",
			"order_number", order.OrderNumber, "attempt", attempt)
	}
	return fmt.Errorf("order number still taken after %d attempts: %w", orderNumberAttempts, domain.ErrConflict)
}

// validatePlaceOrder checks the request shape and merges repeated products
// into one line, keeping first-seen order.
func validatePlaceOrder(in PlaceOrderInput) ([]PlaceOrderItem, error) {
	fail := func(productID uuid.UUID, msg string) error {
		return &OrderError{
			Stage:     StageValidating,
			ProductID: productID,
			Err:       fmt.Errorf("%s: %w", msg, domain.ErrValidation),
		}
	}

	if in.UserID == uuid.Nil {
		return nil, fail(uuid.Nil, "user required")
	}
	if len(in.Items) == 0 {
		return nil, fail(uuid.Nil, "items required")
	}
	if strings.TrimSpace(in.Delivery.City) == "" ||
		strings.TrimSpace(in.Delivery.Street) == "" ||
		strings.TrimSpace(in.Delivery.House) == "" {
		return nil, fail(uuid.Nil, "delivery city, street and house required")
	}
	if strings.TrimSpace(in.Contact.FullName) == "" || strings.TrimSpace(in.Contact.Phone) == "" {
		return nil, fail(uuid.Nil, "contact name and phone required")
	}

	index := make(map[uuid.UUID]int, len(in.Items))
	lines := make([]PlaceOrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == uuid.Nil {
			return nil, fail(uuid.Nil, "product_id required")
		}
		if it.Quantity <= 0 {
			return nil, fail(it.ProductID, "quantity must be > 0")
		}
		if i, ok := index[it.ProductID]; ok {
			lines[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(lines)
		lines = append(lines, it)
	}
	return lines, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Size   int            `json:"size"`
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, page, size int) (*OrderPage, error) {
	from, limit := util.Calculate(page, size)
	orders, total, err := s.Repo.ListOrders(ctx, userID, from, limit)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Orders: orders, Total: total, Page: from/limit + 1, Size: limit}, nil
}

// CancelOrder is the buyer's cancellation. It is only allowed before the
// order has been paid.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, _, err := s.transition(ctx, models.OrderStatusCancelled,
		func(tx *repo.GormRepo) (*models.Order, error) { return tx.LockOrder(ctx, orderID) },
		func(o *models.Order) error {
			if o.UserID != userID {
				return fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
			}
			if o.Status != models.OrderStatusPending && o.Status != models.OrderStatusPaymentFailed &&
				o.Status != models.OrderStatusCancelled {
				return fmt.Errorf("cannot cancel %s order: %w", o.Status, domain.ErrInvalidTransition)
			}
			return nil
		})
	return order, err
}

// UpdateStatus is the fulfilment path used by staff.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	order, _, err := s.transition(ctx, to,
		func(tx *repo.GormRepo) (*models.Order, error) { return tx.LockOrder(ctx, orderID) },
		nil)
	return order, err
}

// transition moves a locked order to status to, releasing its stock when the
// new status gives the goods back. Moving to the current status changes
// nothing and reports changed=false.
func (s *OrderService) transition(
	ctx context.Context,
	to models.OrderStatus,
	load func(tx *repo.GormRepo) (*models.Order, error),
	guard func(o *models.Order) error,
) (*models.Order, bool, error) {
	l := logging.FromContext(ctx).With("svc", "order.transition", "to", to)

	var (
		order   *models.Order
		changed bool
	)
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		o, err := load(tx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order: %w", domain.ErrNotFound)
			}
			return err
		}
		order = o

		if guard != nil {
			if err := guard(o); err != nil {
				return err
			}
		}
		if err := domain.CheckTransition(o.Status, to); err != nil {
			return err
		}
		if o.Status == to {
			return nil
		}

		if domain.ReleasesStock(to) && !domain.ReleasesStock(o.Status) {
			for _, it := range o.Items {
				if err := tx.Release(ctx, it.VariantID, it.Quantity); err != nil {
					return fmt.Errorf("release variant %s: %w", it.VariantID, err)
				}
			}
		}

		if err := tx.UpdateOrderStatus(ctx, o.ID, to); err != nil {
			return err
		}
		l.Info("order_status_changed", "order_id", o.ID, "from", o.Status)
		o.Status = to
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		publish(ctx, s.Events, s.Topic, order.ID.String(), orderEvent(EventOrderStatus, order))
	}
	return order, changed, nil
}
